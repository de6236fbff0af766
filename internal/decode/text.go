package decode

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// TextDecoder reads UTF-8 text files. Invalid byte sequences are dropped and form feeds
// separate pages.
type TextDecoder struct{}

func (TextDecoder) Decode(_ context.Context, r io.Reader) (Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read text: %w", err)
	}
	s := strings.TrimPrefix(string(b), "\ufeff")
	s = strings.ToValidUTF8(s, "")
	return splitPages(s, nil), nil
}
