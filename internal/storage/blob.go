package storage

import (
	"errors"
	"io"
)

// ErrBlobNotFound is returned by Get for a key with no stored blob.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore keeps opaque documents under slash-separated keys such as
// "uploads/<exam id>/source.pdf".
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error // missing keys are not an error
}
