package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidFile = errors.New("invalid product image file")

// FilePayload is an uploaded file as the transport layer hands it over:
// a declared name, a declared content type, and the bytes themselves.
// Reading the bytes may fail.
type FilePayload interface {
	Filename() string
	ContentType() string
	Bytes() ([]byte, error)
}

// AttachFile validates the payload and absorbs it into the product,
// replacing any previous image. A nil payload is a no-op, leaving whatever
// image the product already has. All three image fields are set together;
// on any failure the product is left unchanged.
//
// I/O failures from the payload are wrapped as ErrInvalidFile so callers
// only ever see the domain error taxonomy.
func (p *Product) AttachFile(file FilePayload) error {
	if file == nil {
		return nil
	}

	name := file.Filename()
	if !safeFileName(name) {
		return fmt.Errorf("%w: unsafe file name %q", ErrInvalidFile, name)
	}

	data, err := file.Bytes()
	if err != nil {
		return fmt.Errorf("%w: reading file bytes: %v", ErrInvalidFile, err)
	}

	p.Image = &ProductImage{
		FileName:    name,
		ContentType: file.ContentType(),
		Data:        data,
	}
	return nil
}

// safeFileName rejects names that could escape an upload directory:
// traversal tokens and anything carrying a path separator.
func safeFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return true
}
