package decode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// runner executes an external tool and returns its stdout.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return out.Bytes(), nil
}

// spoolTemp copies r into a temporary file for tools that only read paths.
func spoolTemp(r io.Reader, pattern string) (string, func(), error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { f.Close(); os.Remove(f.Name()) }
	if _, err := io.Copy(f, r); err != nil {
		cleanup()
		return "", nil, err
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}

var (
	reSentenceGlue = regexp.MustCompile(`([.!?])([A-Z])`)
	reOptionGlue   = regexp.MustCompile(`\b([A-D])\)(\w)`)
	reMarkerGlue   = regexp.MustCompile(`([a-z?!.:)])(Q\d+[.)])`)
)

// cleanPDFPage repairs words the text layer glued together.
func cleanPDFPage(s string) string {
	s = reSentenceGlue.ReplaceAllString(s, "$1 $2")
	s = reOptionGlue.ReplaceAllString(s, "$1) $2")
	s = reMarkerGlue.ReplaceAllString(s, "$1 $2")
	return s
}

// PDFDecoder extracts the text layer with poppler's pdftotext.
type PDFDecoder struct {
	Timeout time.Duration
	run     runner
}

func NewPDFDecoder() *PDFDecoder {
	return &PDFDecoder{Timeout: 60 * time.Second, run: execRun}
}

func (p *PDFDecoder) Decode(ctx context.Context, r io.Reader) (Document, error) {
	path, cleanup, err := spoolTemp(r, "upload-*.pdf")
	if err != nil {
		return Document{}, fmt.Errorf("spool pdf: %w", err)
	}
	defer cleanup()

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	run := p.run
	if run == nil {
		run = execRun
	}
	out, err := run(ctx, "pdftotext", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Document{}, fmt.Errorf("%w: pdftotext not installed", ErrUnsupported)
		}
		return Document{}, err
	}
	return splitPages(string(out), cleanPDFPage), nil
}
