package download

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF assembles a minimal PDF with the given number of empty pages and
// a correct cross-reference table.
func buildPDF(pages int) []byte {
	var objects []string
	kids := make([]string, pages)
	for i := 0; i < pages; i++ {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages),
	)
	for i := 0; i < pages; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return []byte(b.String())
}

func TestSaveWritesPDF(t *testing.T) {
	dir := t.TempDir()
	data := buildPDF(2)

	saved, err := Saver{Dir: dir}.Save(data, "Lease Agreement_v2.pdf")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Lease Agreement_v2.pdf"), saved.Path)
	assert.Equal(t, len(data), saved.Size)
	assert.Equal(t, 2, saved.Pages)

	got, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file removed")
}

func TestSaveDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	data := buildPDF(1)
	s := Saver{Dir: dir}

	first, err := s.Save(data, "NDA")
	require.NoError(t, err)
	second, err := s.Save(data, "NDA")
	require.NoError(t, err)
	third, err := s.Save(data, "NDA.pdf")
	require.NoError(t, err)

	assert.Equal(t, "NDA.pdf", filepath.Base(first.Path))
	assert.Equal(t, "NDA (1).pdf", filepath.Base(second.Path))
	assert.Equal(t, "NDA (2).pdf", filepath.Base(third.Path))
}

func TestSaveRejectsNonPDF(t *testing.T) {
	dir := t.TempDir()

	_, err := Saver{Dir: dir}.Save([]byte(`{"error":"PDF generation error"}`), "doc.pdf")
	require.ErrorIs(t, err, ErrNotPDF)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing written on failure")
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "pdfs")

	saved, err := Saver{Dir: dir}.Save(buildPDF(1), "doc")
	require.NoError(t, err)
	assert.FileExists(t, saved.Path)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Lease Agreement", "Lease Agreement.pdf"},
		{"Lease Agreement.pdf", "Lease Agreement.pdf"},
		{"report.PDF", "report.pdf"},
		{"Sales / Purchase", "Sales _ Purchase.pdf"},
		{"../../etc/passwd", "_.._etc_passwd.pdf"},
		{"", "document.pdf"},
		{"   ", "document.pdf"},
		{"tab\there", "tabhere.pdf"},
		{`a:b*c?"d"<e>|f`, "a_b_c__d__e__f.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.in))
		})
	}
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF(buildPDF(1)))
	assert.False(t, IsPDF([]byte("<html></html>")))
	assert.False(t, IsPDF(nil))
}

func TestPageCountMalformed(t *testing.T) {
	assert.Equal(t, 0, PageCount([]byte("%PDF-1.4\ngarbage")))
	assert.Equal(t, 1, PageCount(buildPDF(1)))
}
