package adapter

import (
	"io"

	"cloud.google.com/go/storage"
)

func NewObjectReader(r io.ReadCloser, client *storage.Client) io.ReadCloser {
	return &objectReader{ReadCloser: r, client: client}
}
