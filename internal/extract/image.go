package extract

import (
	"context"
	"fmt"
	"os"

	"contentdex/internal/model"
)

// Minimum pixel dimensions worth OCR'ing. Tiny images are icons and
// decorations, not text carriers.
const minOCRDimension = 50

// imageExtractor probes image dimensions and runs OCR when the skip
// rules allow it.
type imageExtractor struct {
	ocr model.OCRBackend
}

func (e *imageExtractor) Extensions() []string {
	return []string{"png", "jpg", "jpeg", "gif", "bmp", "tiff", "tif", "webp", "ico", "svg"}
}

func (e *imageExtractor) Extract(ctx context.Context, fi model.FileInfo) model.Extracted {
	data, err := os.ReadFile(fi.Path)
	if err != nil {
		return model.ExtractError{
			Kind:   model.KindPermanent,
			Detail: fmt.Sprintf("reading %s: %v", fi.Name, err),
		}
	}

	width, height := probeDimensions(data, fi.Ext)

	// ICO is always skipped; so is anything below the OCR floor
	if fi.Ext == "ico" || width < minOCRDimension || height < minOCRDimension {
		return model.ImageOCR{Width: width, Height: height, Skipped: true}
	}

	if e.ocr == nil {
		return model.ExtractError{
			Kind:   model.KindMissingDependency,
			Detail: "no OCR backend available",
		}
	}
	text, err := e.ocr.Recognize(ctx, data)
	if err != nil {
		return model.ExtractError{
			Kind:   model.KindPermanent,
			Detail: fmt.Sprintf("ocr on %s: %v", fi.Name, err),
		}
	}
	return model.ImageOCR{Text: text, Width: width, Height: height}
}
