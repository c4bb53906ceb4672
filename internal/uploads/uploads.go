// Package uploads validates files before they are sent to the backend.
// Pictures are normalized to JPEG; PDFs pass through; anything else is refused.
package uploads

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"github.com/erazemk/auberge/internal/imaging"
)

// MaxSize is the largest accepted upload.
const MaxSize = 10 << 20

var (
	ErrEmpty       = errors.New("file is empty")
	ErrTooLarge    = errors.New("file is too large")
	ErrUnsupported = errors.New("unsupported file type")
)

// File is an upload ready to be sent.
type File struct {
	Name string
	MIME string
	Data []byte
}

// Prepare sniffs data and returns the file to send under name.
func Prepare(name string, data []byte) (File, error) {
	if len(data) == 0 {
		return File{}, ErrEmpty
	}
	if len(data) > MaxSize {
		return File{}, ErrTooLarge
	}

	if imaging.IsImage(data) {
		res, err := imaging.Process(data)
		if err != nil {
			return File{}, err
		}
		return File{Name: withExt(name, ".jpg"), MIME: res.MIME, Data: res.Data}, nil
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return File{}, fmt.Errorf("sniffing %s: %w", name, err)
	}
	if kind.MIME.Value != "application/pdf" {
		return File{}, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
	return File{Name: withExt(name, ".pdf"), MIME: kind.MIME.Value, Data: data}, nil
}

func withExt(name, ext string) string {
	base := filepath.Base(name)
	if base == "." || base == "/" || base == "" {
		base = "fichier"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}
