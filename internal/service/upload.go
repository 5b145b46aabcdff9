package service

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"snapfeed/internal/validation"
)

// Image is a file to upload.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// Validate checks the declared type and size.
func (img Image) Validate() error {
	return validation.ValidateImage(img.ContentType, img.Size)
}

// ReadImage loads an image file from disk. The content type is sniffed from the
// first bytes and falls back to the file extension.
func ReadImage(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Image{}, fmt.Errorf("reading image: %w", err)
	}
	if info.Size() > validation.MaxImageBytes {
		return Image{}, validation.ValidateImage("image/", info.Size())
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return Image{}, fmt.Errorf("reading image: %w", err)
	}

	contentType := http.DetectContentType(data)
	if contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
			contentType = byExt
		}
	}
	return Image{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        bytes.NewReader(data),
	}, nil
}
