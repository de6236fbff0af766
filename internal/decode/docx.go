package decode

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errNoDocumentPart = errors.New("docx: word/document.xml missing")

// DefaultMaxTextBytes bounds the text a DocxDecoder will produce.
const DefaultMaxTextBytes = 2 << 20

// markupRatio is how much larger than the text limit the XML part may be.
const markupRatio = 16

// DocxDecoder reads the main WordprocessingML part of a .docx file. Paragraphs become
// lines, table rows become lines of space-joined cells and explicit page breaks start
// a new page.
type DocxDecoder struct {
	// MaxTextBytes caps the decoded text; the uncompressed XML part is capped at
	// markupRatio times this. Zero means DefaultMaxTextBytes.
	MaxTextBytes int64
}

func (d DocxDecoder) limits() (text, part int64) {
	text = d.MaxTextBytes
	if text <= 0 {
		text = DefaultMaxTextBytes
	}
	return text, text * markupRatio
}

func (d DocxDecoder) Decode(_ context.Context, r io.Reader) (Document, error) {
	maxText, maxPart := d.limits()
	b, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read docx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return Document{}, fmt.Errorf("open docx: %w", err)
	}

	var (
		part   *zip.File
		images int
	)
	for _, f := range zr.File {
		switch {
		case f.Name == "word/document.xml":
			part = f
		case strings.HasPrefix(f.Name, "word/media/"):
			images++
		}
	}
	if part == nil {
		return Document{}, errNoDocumentPart
	}
	if part.UncompressedSize64 > uint64(maxPart) {
		return Document{}, fmt.Errorf("%w: document part is %d bytes, limit %d", ErrTooLarge, part.UncompressedSize64, maxPart)
	}
	rc, err := part.Open()
	if err != nil {
		return Document{}, fmt.Errorf("open document part: %w", err)
	}
	defer rc.Close()

	doc, err := readWordML(&cappedReader{r: io.LimitReader(rc, maxPart+1), max: maxPart}, maxText)
	if err != nil {
		return Document{}, err
	}
	doc.Images = images
	return doc, nil
}

// cappedReader fails once more than max bytes have come through, so a part whose
// header understates its size is still bounded.
type cappedReader struct {
	r   io.Reader
	n   int64
	max int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.n > c.max {
		return n, fmt.Errorf("%w: document part over %d bytes", ErrTooLarge, c.max)
	}
	return n, err
}

func readWordML(r io.Reader, maxText int64) (Document, error) {
	var (
		doc      Document
		cur      strings.Builder
		inText   bool
		tblDepth int
		flushed  int64
	)
	flush := func() {
		flushed += int64(cur.Len())
		if strings.TrimSpace(cur.String()) == "" {
			doc.EmptyPages++
		} else {
			doc.Pages = append(doc.Pages, cur.String())
		}
		cur.Reset()
	}

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Document{}, fmt.Errorf("parse document part: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				cur.WriteByte(' ')
			case "cr":
				cur.WriteByte('\n')
			case "br":
				if attr(t, "type") == "page" {
					flush()
				} else {
					cur.WriteByte('\n')
				}
			case "tbl":
				tblDepth++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tblDepth > 0 {
					cur.WriteByte(' ')
				} else {
					cur.WriteByte('\n')
				}
			case "tr":
				cur.WriteByte('\n')
			case "tbl":
				tblDepth--
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
		if size := flushed + int64(cur.Len()); size > maxText {
			return Document{}, fmt.Errorf("%w: text over %d bytes", ErrTooLarge, maxText)
		}
	}
	flush()
	return doc, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
