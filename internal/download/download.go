// Package download saves PDF blobs fetched from the backend to disk.
package download

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned when the fetched bytes are not a PDF document.
var ErrNotPDF = errors.New("downloaded file is not a PDF")

// maxCollisions bounds the " (n)" suffix search.
const maxCollisions = 1000

// Saved describes a written file.
type Saved struct {
	Path  string
	Size  int
	Pages int
}

// Saver writes PDFs into Dir without overwriting existing files.
type Saver struct {
	Dir string
}

// Save checks that data is a PDF and writes it under name. A ".pdf"
// extension is added when missing; an existing file gets a " (n)" suffix.
// The file only appears once fully written.
func (s Saver) Save(data []byte, name string) (*Saved, error) {
	if !IsPDF(data) {
		return nil, fmt.Errorf("%w (detected %s)", ErrNotPDF, mimetype.Detect(data).String())
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".advocai-*.pdf.part")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	// Removing after a successful rename fails harmlessly.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	target, err := claim(dir, FileName(name))
	if err != nil {
		return nil, err
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(target)
		return nil, fmt.Errorf("move into place: %w", err)
	}

	return &Saved{Path: target, Size: len(data), Pages: PageCount(data)}, nil
}

// claim reserves a free file name by creating it exclusively.
func claim(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i < maxCollisions; i++ {
		candidate := name
		if i > 0 {
			candidate = stem + " (" + strconv.Itoa(i) + ")" + ext
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("reserve %s: %w", candidate, err)
		}
		f.Close()
		return path, nil
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, dir)
}

// FileName turns a title-derived name into a safe file name ending in .pdf.
// Reserved characters, path separators included, become "_" and control
// characters are dropped. An empty result becomes "document.pdf".
func FileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20, r == 0x7f:
			continue
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), ". ")
	if strings.EqualFold(filepath.Ext(out), ".pdf") {
		out = strings.TrimSpace(strings.TrimSuffix(out, filepath.Ext(out)))
	}
	if out == "" {
		out = "document"
	}
	return out + ".pdf"
}

// IsPDF reports whether data starts like a PDF document.
func IsPDF(data []byte) bool {
	return mimetype.Detect(data).Is("application/pdf")
}

// PageCount returns the number of pages, or 0 when the PDF cannot be parsed.
func PageCount(data []byte) (pages int) {
	defer func() {
		// The parser panics on some malformed inputs.
		if recover() != nil {
			pages = 0
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return r.NumPage()
}
