// Package extract maps file extensions to format extractors. Each
// extractor turns one file into a model.Extracted variant; container
// formats (archives, emails) stage their members on disk for recursive
// ingestion.
package extract

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"contentdex/internal/config"
	"contentdex/internal/model"
)

// Backends holds the optional format libraries injected into the
// registry. A nil backend degrades the matching extractors to
// MissingDependency errors instead of failing the build.
type Backends struct {
	OCR    model.OCRBackend
	PDF    model.PDFBackend
	Office model.OfficeBackend
}

// Registry dispatches files to extractors by lowercase extension.
type Registry struct {
	extractors map[string]model.Extractor
	log        zerolog.Logger
}

// NewRegistry wires the six extension groups. The default office backend
// reads OOXML natively; legacy office formats and PDF/OCR depend on the
// injected backends.
func NewRegistry(cfg *config.Config, backends Backends, logger zerolog.Logger) *Registry {
	r := &Registry{
		extractors: make(map[string]model.Extractor),
		log:        logger.With().Str("component", "extract").Logger(),
	}
	if backends.Office == nil {
		backends.Office = OOXMLBackend{}
	}
	r.Register(&textExtractor{})
	r.Register(&archiveExtractor{stagingRoot: cfg.ExtractionFolder})
	r.Register(&emailExtractor{stagingRoot: cfg.ExtractionFolder})
	r.Register(&imageExtractor{ocr: backends.OCR})
	r.Register(&pdfExtractor{backend: backends.PDF, ocr: backends.OCR})
	r.Register(&officeExtractor{backend: backends.Office})
	return r
}

// Register adds an extractor for each of its extensions, replacing any
// previous registration.
func (r *Registry) Register(e model.Extractor) {
	for _, ext := range e.Extensions() {
		r.extractors[ext] = e
	}
}

// Supported reports whether ext has a registered extractor.
func (r *Registry) Supported(ext string) bool {
	_, ok := r.extractors[ext]
	return ok
}

// Extract dispatches fi to its extractor. Unknown extensions come back as
// the UnsupportedType error variant.
func (r *Registry) Extract(ctx context.Context, fi model.FileInfo) model.Extracted {
	e, ok := r.extractors[fi.Ext]
	if !ok {
		return model.ExtractError{
			Kind:   model.KindUnsupportedType,
			Detail: fmt.Sprintf("no extractor for extension %q", fi.Ext),
		}
	}
	return e.Extract(ctx, fi)
}
