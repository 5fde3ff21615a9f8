// Package storage holds the uploaded-statement storage boundary. The core
// only needs a durable reference to the original file; the backing store is
// swappable behind the Uploader interface.
package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	FileURL  string `json:"file_url"`
	FileKey  string `json:"file_key"`
	FileSize int64  `json:"file_size"`
	FileType string `json:"file_type"`
}

type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error)
}
