package service

import (
	"context"
	"io"
)

// Uploader sends one image to the media host and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, filename string) (string, error)
}
