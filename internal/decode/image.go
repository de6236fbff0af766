package decode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// TesseractDecoder OCRs a scanned page image.
type TesseractDecoder struct {
	Lang    string
	Timeout time.Duration
	run     runner
}

func NewTesseractDecoder() *TesseractDecoder {
	return &TesseractDecoder{Lang: "eng", Timeout: 30 * time.Second, run: execRun}
}

func (t *TesseractDecoder) Decode(ctx context.Context, r io.Reader) (Document, error) {
	path, cleanup, err := spoolTemp(r, "scan-*.img")
	if err != nil {
		return Document{}, fmt.Errorf("spool image: %w", err)
	}
	defer cleanup()

	args := []string{path, "stdout"}
	if t.Lang != "" {
		args = append(args, "-l", t.Lang)
	}
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}
	run := t.run
	if run == nil {
		run = execRun
	}
	out, err := run(ctx, "tesseract", args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Document{}, fmt.Errorf("%w: tesseract not installed", ErrUnsupported)
		}
		return Document{}, err
	}
	// one image, one page
	return splitPages(string(out), nil), nil
}
