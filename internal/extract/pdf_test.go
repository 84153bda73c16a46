package extract

import (
	"context"
	"strings"
	"testing"

	"contentdex/internal/model"
)

// fakePDF serves canned page text and a large rendered image per page.
type fakePDF struct {
	pages      []string
	imageCalls int
}

func (f *fakePDF) PageCount(ctx context.Context, path string) (int, error) {
	return len(f.pages), nil
}

func (f *fakePDF) PageText(ctx context.Context, path string, page int) (string, error) {
	return f.pages[page-1], nil
}

func (f *fakePDF) PageImage(ctx context.Context, path string, page int) ([]byte, int, int, error) {
	f.imageCalls++
	return []byte("raster"), 800, 600, nil
}

func TestTextPDFSkipsOCR(t *testing.T) {
	long := strings.Repeat("direct text content ", 10)
	pdf := &fakePDF{pages: []string{long, long, long}}
	ocr := &fakeOCR{text: "should not be used"}
	e := &pdfExtractor{backend: pdf, ocr: ocr}

	fi := writeTestFile(t, "doc.pdf", []byte("%PDF-1.4"))
	got := e.Extract(context.Background(), fi)
	paged, ok := got.(model.Paged)
	if !ok {
		t.Fatalf("got %#v", got)
	}
	if len(paged.Pages) != 3 {
		t.Fatalf("pages = %d", len(paged.Pages))
	}
	if ocr.calls != 0 || pdf.imageCalls != 0 {
		t.Errorf("text PDF must not touch OCR: ocr=%d render=%d", ocr.calls, pdf.imageCalls)
	}
	if paged.Pages[0].Text != long {
		t.Errorf("page text = %q", paged.Pages[0].Text)
	}
}

func TestImagePDFRunsPerPageOCR(t *testing.T) {
	// sparse direct text classifies as image PDF; page 2 carries enough
	// direct text to skip its own OCR
	enough := strings.Repeat("x", pdfDirectCharMinimum)
	pdf := &fakePDF{pages: []string{"", enough, ""}}
	ocr := &fakeOCR{text: "ocr page text"}
	e := &pdfExtractor{backend: pdf, ocr: ocr}

	fi := writeTestFile(t, "scan.pdf", []byte("%PDF-1.4"))
	got := e.Extract(context.Background(), fi)
	paged, ok := got.(model.Paged)
	if !ok {
		t.Fatalf("got %#v", got)
	}
	if ocr.calls != 2 {
		t.Errorf("ocr calls = %d, want 2 (pages 1 and 3)", ocr.calls)
	}
	if paged.Pages[0].Text != "ocr page text" {
		t.Errorf("page 1 = %q", paged.Pages[0].Text)
	}
	if paged.Pages[1].Text != enough {
		t.Errorf("page 2 must keep direct text, got %q", paged.Pages[1].Text)
	}
}

func TestPDFWithoutBackend(t *testing.T) {
	e := &pdfExtractor{}
	fi := writeTestFile(t, "doc.pdf", []byte("%PDF-1.4"))
	got := e.Extract(context.Background(), fi)
	ee, ok := got.(model.ExtractError)
	if !ok || ee.Kind != model.KindMissingDependency {
		t.Errorf("got %#v, want MissingDependency", got)
	}
}

func TestEmptyPDFReportsInvalidData(t *testing.T) {
	e := &pdfExtractor{backend: &fakePDF{}}
	fi := writeTestFile(t, "empty.pdf", []byte("%PDF-1.4"))
	got := e.Extract(context.Background(), fi)
	ee, ok := got.(model.ExtractError)
	if !ok || ee.Kind != model.KindInvalidData {
		t.Errorf("got %#v, want InvalidData", got)
	}
}
