package model

// Extracted is the tagged result of running a format extractor over one
// file. Exactly one concrete variant is returned per extraction; failures
// travel as the ExtractError variant rather than a Go error so that the
// dispatcher can persist partial metadata for failed files.
type Extracted interface {
	isExtracted()
}

// Text is plain textual content (txt, json, xml, html after tag stripping).
type Text struct {
	Body string
}

// Page is one PDF page with its directly extracted or OCR'd text.
type Page struct {
	Number int
	Text   string
}

// Paged is page-structured content, typically a PDF.
type Paged struct {
	Pages []Page
	Title string
}

// Sheet is one spreadsheet tab.
type Sheet struct {
	Name string
	Rows [][]string
}

// Tabular is sheet-structured content (xlsx and friends).
type Tabular struct {
	Sheets []Sheet
}

// Tables is a flat list of tables without sheet names.
type Tables struct {
	Tables [][][]string
}

// Slides is presentation content; each slide is a list of text shapes.
type Slides struct {
	Slides [][]string
}

// EmailMessage is one parsed RFC 5322 message.
type EmailMessage struct {
	From      string
	To        string
	Cc        string
	Bcc       string
	Subject   string
	Date      string
	MessageID string
	Body      string
}

// Email is the result of parsing an email container (.eml holds one
// message, .mbox may hold many). Decoded attachments, if any, are staged
// under AttachmentsDir for recursive ingestion.
type Email struct {
	Messages        []EmailMessage
	AttachmentsDir  string
	AttachmentCount int
}

// Archive marks a container whose members were staged under ExtractionDir.
// The container itself carries no text; members are ingested as children.
type Archive struct {
	ExtractionDir string
}

// ImageOCR is the result of OCR over a raster image. Skipped is set when
// the image failed the minimum-dimension rule or is an ICO.
type ImageOCR struct {
	Text    string
	Width   int
	Height  int
	Skipped bool
}

// ExtractError is the failure variant. Kind follows the engine error
// taxonomy; Detail is a human-readable message.
type ExtractError struct {
	Kind   ErrorKind
	Detail string
}

func (Text) isExtracted()         {}
func (Paged) isExtracted()        {}
func (Tabular) isExtracted()      {}
func (Tables) isExtracted()       {}
func (Slides) isExtracted()       {}
func (Email) isExtracted()        {}
func (Archive) isExtracted()      {}
func (ImageOCR) isExtracted()     {}
func (ExtractError) isExtracted() {}
