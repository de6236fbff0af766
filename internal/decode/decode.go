// Package decode turns uploaded documents into plain text pages.
package decode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupported is returned for file kinds with no decoder, or whose external tool is
// not installed.
var ErrUnsupported = errors.New("unsupported document type")

// ErrTooLarge means a document expands past a decoder's size limit.
var ErrTooLarge = errors.New("decoded document exceeds size limit")

// Document is the decoded text of one file.
type Document struct {
	Pages      []string `json:"pages"`
	EmptyPages int      `json:"empty_pages"` // pages with no text layer, usually scans or diagrams
	Images     int      `json:"images"`      // embedded images, when the format exposes them
}

// Text joins the pages with line breaks.
func (d Document) Text() string { return strings.Join(d.Pages, "\n") }

// Decoder reads one document.
type Decoder interface {
	Decode(ctx context.Context, r io.Reader) (Document, error)
}

// Capabilities lists the optional external tools available on this host.
type Capabilities struct {
	PDFToText bool `json:"pdftotext"`
	Tesseract bool `json:"tesseract"`
}

// Detect probes PATH for the external tools once.
func Detect() Capabilities {
	_, pdfErr := exec.LookPath("pdftotext")
	_, ocrErr := exec.LookPath("tesseract")
	return Capabilities{PDFToText: pdfErr == nil, Tesseract: ocrErr == nil}
}

// Registry maps lower-case file extensions to decoders.
type Registry struct {
	caps     Capabilities
	decoders map[string]Decoder
}

// NewRegistry installs the built-in decoders; PDF and image support depend on caps.
func NewRegistry(caps Capabilities) *Registry {
	r := &Registry{caps: caps, decoders: map[string]Decoder{}}
	r.Register(".txt", TextDecoder{})
	r.Register(".docx", DocxDecoder{})
	if caps.PDFToText {
		r.Register(".pdf", NewPDFDecoder())
	}
	if caps.Tesseract {
		ocr := NewTesseractDecoder()
		for _, ext := range []string{".png", ".jpg", ".jpeg", ".tif", ".tiff"} {
			r.Register(ext, ocr)
		}
	}
	return r
}

// Register adds or replaces the decoder for ext.
func (r *Registry) Register(ext string, d Decoder) {
	r.decoders[strings.ToLower(ext)] = d
}

// Capabilities reports what the registry was built with.
func (r *Registry) Capabilities() Capabilities { return r.caps }

// Extensions returns the supported extensions, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.decoders))
	for ext := range r.decoders {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// For picks the decoder for a file name.
func (r *Registry) For(filename string) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	d, ok := r.decoders[ext]
	if !ok {
		if ext == "" {
			ext = "(none)"
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	return d, nil
}

// Decode looks up the decoder for filename and runs it.
func (r *Registry) Decode(ctx context.Context, filename string, rd io.Reader) (Document, error) {
	d, err := r.For(filename)
	if err != nil {
		return Document{}, err
	}
	return d.Decode(ctx, rd)
}

// splitPages splits tool output on form feeds, counting and dropping blank pages.
func splitPages(s string, clean func(string) string) Document {
	var doc Document
	raw := strings.Split(s, "\f")
	// pdftotext terminates the last page with a form feed
	if len(raw) > 1 && strings.TrimSpace(raw[len(raw)-1]) == "" {
		raw = raw[:len(raw)-1]
	}
	for _, p := range raw {
		if clean != nil {
			p = clean(p)
		}
		if strings.TrimSpace(p) == "" {
			doc.EmptyPages++
			continue
		}
		doc.Pages = append(doc.Pages, p)
	}
	return doc
}
