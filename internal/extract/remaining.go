package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"contentdex/internal/model"
)

// textExtractor handles the "remaining" group: files that are already
// textual or close enough to read directly.
type textExtractor struct{}

func (e *textExtractor) Extensions() []string {
	return []string{"txt", "json", "xml", "yaml", "yml", "html", "htm", "md", "log", "ini", "cfg", "rtf", "bin", "csv"}
}

func (e *textExtractor) Extract(ctx context.Context, fi model.FileInfo) model.Extracted {
	data, err := os.ReadFile(fi.Path)
	if err != nil {
		return model.ExtractError{
			Kind:   model.KindPermanent,
			Detail: fmt.Sprintf("reading %s: %v", fi.Name, err),
		}
	}
	body := string(data)
	if fi.Ext == "html" || fi.Ext == "htm" {
		body = stripHTML(body)
	}
	return model.Text{Body: body}
}

// stripHTML removes script/style blocks and tags, then decodes the
// handful of entities that matter for tokenization.
func stripHTML(s string) string {
	s = stripBlock(s, "<script", "</script>")
	s = stripBlock(s, "<style", "</style>")

	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			if inTag {
				inTag = false
				b.WriteByte(' ')
			} else {
				b.WriteRune(r)
			}
		case !inTag:
			b.WriteRune(r)
		}
	}
	return decodeEntities(b.String())
}

// stripBlock removes every case-insensitive open..close region.
func stripBlock(s, open, close string) string {
	lower := strings.ToLower(s)
	openL := strings.ToLower(open)
	closeL := strings.ToLower(close)
	var b strings.Builder
	pos := 0
	for {
		start := strings.Index(lower[pos:], openL)
		if start < 0 {
			b.WriteString(s[pos:])
			return b.String()
		}
		start += pos
		b.WriteString(s[pos:start])
		end := strings.Index(lower[start:], closeL)
		if end < 0 {
			return b.String()
		}
		pos = start + end + len(closeL)
	}
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"&nbsp;", " ",
)

func decodeEntities(s string) string {
	return entityReplacer.Replace(s)
}
