package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"contentdex/internal/model"
)

func buildOfficeZip(t *testing.T, members map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range members {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "office.bin")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadDocx(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="ns"><w:body>
<w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
<w:p><w:r><w:t>Second</w:t></w:r><w:r><w:t> paragraph</w:t></w:r></w:p>
</w:body></w:document>`
	path := buildOfficeZip(t, map[string]string{"word/document.xml": doc})

	got, err := OOXMLBackend{}.Extract(context.Background(), path, "docx")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	text, ok := got.(model.Text)
	if !ok {
		t.Fatalf("got %#v", got)
	}
	if !strings.Contains(text.Body, "First paragraph") || !strings.Contains(text.Body, "Second paragraph") {
		t.Errorf("body = %q", text.Body)
	}
}

func TestReadXlsxSharedStrings(t *testing.T) {
	shared := `<?xml version="1.0"?>
<sst><si><t>Name</t></si><si><t>City</t></si></sst>`
	sheet := `<?xml version="1.0"?>
<worksheet><sheetData>
<row><c t="s"><v>0</v></c><c t="s"><v>1</v></c></row>
<row><c><v>42</v></c><c t="s"><v>0</v></c></row>
</sheetData></worksheet>`
	path := buildOfficeZip(t, map[string]string{
		"xl/sharedStrings.xml":     shared,
		"xl/worksheets/sheet1.xml": sheet,
	})

	got, err := OOXMLBackend{}.Extract(context.Background(), path, "xlsx")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	tab, ok := got.(model.Tabular)
	if !ok || len(tab.Sheets) != 1 {
		t.Fatalf("got %#v", got)
	}
	rows := tab.Sheets[0].Rows
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][0] != "Name" || rows[0][1] != "City" {
		t.Errorf("header row = %v", rows[0])
	}
	if rows[1][0] != "42" || rows[1][1] != "Name" {
		t.Errorf("data row = %v", rows[1])
	}
}

func TestReadPptxSlideOrder(t *testing.T) {
	slide := func(text string) string {
		return `<?xml version="1.0"?><p:sld xmlns:p="ns" xmlns:a="ns2"><a:t>` + text + `</a:t></p:sld>`
	}
	path := buildOfficeZip(t, map[string]string{
		"ppt/slides/slide2.xml":  slide("second slide"),
		"ppt/slides/slide1.xml":  slide("first slide"),
		"ppt/slides/slide10.xml": slide("tenth slide"),
	})

	got, err := OOXMLBackend{}.Extract(context.Background(), path, "pptx")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	slides, ok := got.(model.Slides)
	if !ok || len(slides.Slides) != 3 {
		t.Fatalf("got %#v", got)
	}
	if slides.Slides[0][0] != "first slide" || slides.Slides[2][0] != "tenth slide" {
		t.Errorf("slide order wrong: %v", slides.Slides)
	}
}

func TestLegacyOfficeNeedsBackend(t *testing.T) {
	_, err := OOXMLBackend{}.Extract(context.Background(), "whatever.doc", "doc")
	if err != model.ErrMissingDependency {
		t.Errorf("err = %v, want ErrMissingDependency", err)
	}
}
