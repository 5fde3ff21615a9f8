package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var contentTypes = map[string]string{
	".csv":  "text/csv",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".pdf":  "application/pdf",
}

// LocalUploader keeps statement files on local disk under a single
// directory, keyed by a generated UUID.
type LocalUploader struct {
	dir string
}

func NewLocalUploader(dir string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &LocalUploader{dir: dir}, nil
}

func (u *LocalUploader) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	key := uuid.New().String() + ext
	path := filepath.Join(u.dir, key)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("storing statement file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("storing statement file: %w", err)
	}

	fileType := contentTypes[ext]
	if fileType == "" {
		fileType = "application/octet-stream"
	}
	return &UploadResult{
		FileURL:  "file://" + path,
		FileKey:  key,
		FileSize: size,
		FileType: fileType,
	}, nil
}
