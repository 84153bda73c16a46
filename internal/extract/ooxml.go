package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"contentdex/internal/model"
)

// OOXMLBackend reads docx/xlsx/pptx straight from their zip+xml layout.
// Legacy binary formats (doc/xls/ppt) are out of its reach and report
// ErrMissingDependency.
type OOXMLBackend struct{}

// Extract implements model.OfficeBackend.
func (OOXMLBackend) Extract(ctx context.Context, filePath, ext string) (model.Extracted, error) {
	switch ext {
	case "docx":
		return readDocx(filePath)
	case "xlsx":
		return readXlsx(filePath)
	case "pptx":
		return readPptx(filePath)
	case "doc", "xls", "ppt":
		return nil, model.ErrMissingDependency
	default:
		return nil, fmt.Errorf("unexpected office extension %q", ext)
	}
}

func openZipMember(r *zip.ReadCloser, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("member %s not found", name)
}

// readDocx concatenates the text runs of word/document.xml, one line per
// paragraph.
func readDocx(filePath string) (model.Extracted, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening docx: %w", err)
	}
	defer r.Close()

	data, err := openZipMember(r, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("reading docx body: %w", err)
	}

	var (
		b      strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing docx body: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return model.Text{Body: b.String()}, nil
}

// readXlsx resolves shared strings and walks every worksheet into rows.
func readXlsx(filePath string) (model.Extracted, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %w", err)
	}
	defer r.Close()

	shared, err := readSharedStrings(r)
	if err != nil {
		return nil, err
	}

	var sheetNames []string
	for _, f := range r.File {
		if strings.HasPrefix(f.Name, "xl/worksheets/sheet") && strings.HasSuffix(f.Name, ".xml") {
			sheetNames = append(sheetNames, f.Name)
		}
	}
	sort.Strings(sheetNames)

	result := model.Tabular{}
	for _, name := range sheetNames {
		data, err := openZipMember(r, name)
		if err != nil {
			return nil, err
		}
		rows, err := readSheetRows(data, shared)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		sheetName := strings.TrimSuffix(path.Base(name), ".xml")
		result.Sheets = append(result.Sheets, model.Sheet{Name: sheetName, Rows: rows})
	}
	return result, nil
}

func readSharedStrings(r *zip.ReadCloser) ([]string, error) {
	data, err := openZipMember(r, "xl/sharedStrings.xml")
	if err != nil {
		return nil, nil // workbook without shared strings
	}
	var (
		shared  []string
		current strings.Builder
		inT     bool
		inSI    bool
	)
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing shared strings: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "si":
				inSI = true
				current.Reset()
			case "t":
				inT = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "si":
				inSI = false
				shared = append(shared, current.String())
			case "t":
				inT = false
			}
		case xml.CharData:
			if inSI && inT {
				current.Write(t)
			}
		}
	}
	return shared, nil
}

func readSheetRows(data []byte, shared []string) ([][]string, error) {
	var (
		rows       [][]string
		row        []string
		cellType   string
		cellValue  strings.Builder
		inV        bool
		inInlineT  bool
		haveCell   bool
		appendCell = func() {
			if !haveCell {
				return
			}
			v := cellValue.String()
			if cellType == "s" {
				if idx, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && idx >= 0 && idx < len(shared) {
					v = shared[idx]
				}
			}
			row = append(row, v)
			haveCell = false
		}
	)
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "row":
				row = nil
			case "c":
				cellType = ""
				cellValue.Reset()
				haveCell = true
				for _, attr := range t.Attr {
					if attr.Name.Local == "t" {
						cellType = attr.Value
					}
				}
			case "v":
				inV = true
			case "t":
				inInlineT = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "row":
				appendCell()
				rows = append(rows, row)
			case "c":
				appendCell()
			case "v":
				inV = false
			case "t":
				inInlineT = false
			}
		case xml.CharData:
			if inV || inInlineT {
				cellValue.Write(t)
			}
		}
	}
	return rows, nil
}

// readPptx collects the text runs of each slide in slide order.
func readPptx(filePath string) (model.Extracted, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening pptx: %w", err)
	}
	defer r.Close()

	var slideNames []string
	for _, f := range r.File {
		dir, base := path.Split(f.Name)
		if dir == "ppt/slides/" && strings.HasPrefix(base, "slide") && strings.HasSuffix(base, ".xml") {
			slideNames = append(slideNames, f.Name)
		}
	}
	sort.Slice(slideNames, func(i, j int) bool {
		return slideOrdinal(slideNames[i]) < slideOrdinal(slideNames[j])
	})

	result := model.Slides{}
	for _, name := range slideNames {
		data, err := openZipMember(r, name)
		if err != nil {
			return nil, err
		}
		texts, err := readSlideTexts(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		result.Slides = append(result.Slides, texts)
	}
	return result, nil
}

func slideOrdinal(name string) int {
	base := strings.TrimSuffix(path.Base(name), ".xml")
	n, err := strconv.Atoi(strings.TrimPrefix(base, "slide"))
	if err != nil {
		return 0
	}
	return n
}

func readSlideTexts(data []byte) ([]string, error) {
	var (
		texts []string
		inT   bool
	)
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inT = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inT = false
			}
		case xml.CharData:
			if inT {
				texts = append(texts, string(t))
			}
		}
	}
	return texts, nil
}
