package extract

import (
	"context"
	"fmt"
	"strings"

	"contentdex/internal/model"
)

// Classification thresholds. A PDF averaging more than 50 directly
// extractable characters over its first 3 pages is a text PDF; image-PDF
// pages are OCR'd unless direct extraction already yields 30 characters.
const (
	pdfSamplePages       = 3
	pdfTextAvgThreshold  = 50
	pdfDirectCharMinimum = 30
)

// pdfExtractor drives the injected PDF backend with the text-vs-image
// classification.
type pdfExtractor struct {
	backend model.PDFBackend
	ocr     model.OCRBackend
}

func (e *pdfExtractor) Extensions() []string {
	return []string{"pdf"}
}

func (e *pdfExtractor) Extract(ctx context.Context, fi model.FileInfo) model.Extracted {
	if e.backend == nil {
		return model.ExtractError{
			Kind:   model.KindMissingDependency,
			Detail: "no PDF backend available",
		}
	}
	pageCount, err := e.backend.PageCount(ctx, fi.Path)
	if err != nil {
		return model.ExtractError{
			Kind:   model.KindInvalidData,
			Detail: fmt.Sprintf("opening %s: %v", fi.Name, err),
		}
	}
	if pageCount <= 0 {
		return model.ExtractError{
			Kind:   model.KindInvalidData,
			Detail: fmt.Sprintf("%s has no pages", fi.Name),
		}
	}

	textPDF, err := e.classify(ctx, fi.Path, pageCount)
	if err != nil {
		return model.ExtractError{
			Kind:   model.KindInvalidData,
			Detail: fmt.Sprintf("classifying %s: %v", fi.Name, err),
		}
	}

	pages := make([]model.Page, 0, pageCount)
	for page := 1; page <= pageCount; page++ {
		text, err := e.pageText(ctx, fi.Path, page, textPDF)
		if err != nil {
			return model.ExtractError{
				Kind:   model.KindPermanent,
				Detail: fmt.Sprintf("page %d of %s: %v", page, fi.Name, err),
			}
		}
		pages = append(pages, model.Page{Number: page, Text: text})
	}
	return model.Paged{Pages: pages}
}

// classify samples the first pages for direct text density.
func (e *pdfExtractor) classify(ctx context.Context, path string, pageCount int) (bool, error) {
	sample := pageCount
	if sample > pdfSamplePages {
		sample = pdfSamplePages
	}
	total := 0
	for page := 1; page <= sample; page++ {
		text, err := e.backend.PageText(ctx, path, page)
		if err != nil {
			return false, err
		}
		total += len(strings.TrimSpace(text))
	}
	return total/sample > pdfTextAvgThreshold, nil
}

// pageText returns one page's text: direct extraction for text PDFs, and
// per-page OCR for image PDFs unless direct extraction is already good
// enough.
func (e *pdfExtractor) pageText(ctx context.Context, path string, page int, textPDF bool) (string, error) {
	direct, err := e.backend.PageText(ctx, path, page)
	if err != nil {
		return "", err
	}
	if textPDF || len(strings.TrimSpace(direct)) >= pdfDirectCharMinimum {
		return direct, nil
	}
	if e.ocr == nil {
		// image page with no OCR available: keep whatever direct text exists
		return direct, nil
	}
	image, width, height, err := e.backend.PageImage(ctx, path, page)
	if err != nil {
		return "", err
	}
	if width < minOCRDimension || height < minOCRDimension {
		return direct, nil
	}
	return e.ocr.Recognize(ctx, image)
}
