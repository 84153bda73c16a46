package extract

import (
	"context"
	"errors"
	"fmt"

	"contentdex/internal/model"
)

// officeExtractor delegates to the office backend. The default backend
// handles OOXML natively; legacy binary formats need an external library.
type officeExtractor struct {
	backend model.OfficeBackend
}

func (e *officeExtractor) Extensions() []string {
	return []string{"docx", "xlsx", "pptx", "doc", "xls", "ppt"}
}

func (e *officeExtractor) Extract(ctx context.Context, fi model.FileInfo) model.Extracted {
	if e.backend == nil {
		return model.ExtractError{
			Kind:   model.KindMissingDependency,
			Detail: "no office backend available",
		}
	}
	result, err := e.backend.Extract(ctx, fi.Path, fi.Ext)
	if err != nil {
		if errors.Is(err, model.ErrMissingDependency) {
			return model.ExtractError{
				Kind:   model.KindMissingDependency,
				Detail: fmt.Sprintf("no backend for .%s files", fi.Ext),
			}
		}
		return model.ExtractError{
			Kind:   model.KindInvalidData,
			Detail: fmt.Sprintf("extracting %s: %v", fi.Name, err),
		}
	}
	return result
}
