package pipeline

import (
	"strings"

	"contentdex/internal/model"
)

// Flatten merges an extraction result into one text stream for the
// tokenizer. Containers and failures yield no text; their metadata is
// still persisted by the storage pipeline.
func Flatten(ex model.Extracted) string {
	switch v := ex.(type) {
	case model.Text:
		return v.Body
	case model.Paged:
		parts := make([]string, 0, len(v.Pages))
		for _, p := range v.Pages {
			parts = append(parts, p.Text)
		}
		return strings.Join(parts, "\n")
	case model.Tabular:
		var sb strings.Builder
		for i, sheet := range v.Sheets {
			if i > 0 {
				sb.WriteByte('\n')
			}
			writeRows(&sb, sheet.Rows)
		}
		return sb.String()
	case model.Tables:
		var sb strings.Builder
		for i, table := range v.Tables {
			if i > 0 {
				sb.WriteByte('\n')
			}
			writeRows(&sb, table)
		}
		return sb.String()
	case model.Slides:
		parts := make([]string, 0, len(v.Slides))
		for _, slide := range v.Slides {
			parts = append(parts, strings.Join(slide, "\n"))
		}
		return strings.Join(parts, "\n")
	case model.Email:
		parts := make([]string, 0, len(v.Messages))
		for _, msg := range v.Messages {
			parts = append(parts, flattenMessage(msg))
		}
		return strings.Join(parts, "\n\n")
	case model.ImageOCR:
		if v.Skipped {
			return ""
		}
		return v.Text
	default:
		// Archive, ExtractError and unknown variants carry no text
		return ""
	}
}

func writeRows(sb *strings.Builder, rows [][]string) {
	for _, row := range rows {
		sb.WriteString(strings.Join(row, " "))
		sb.WriteByte('\n')
	}
}

func flattenMessage(msg model.EmailMessage) string {
	var sb strings.Builder
	writeHeader(&sb, "From", msg.From)
	writeHeader(&sb, "To", msg.To)
	writeHeader(&sb, "Cc", msg.Cc)
	writeHeader(&sb, "Bcc", msg.Bcc)
	writeHeader(&sb, "Subject", msg.Subject)
	writeHeader(&sb, "Date", msg.Date)
	writeHeader(&sb, "Message-Id", msg.MessageID)
	sb.WriteByte('\n')
	sb.WriteString(msg.Body)
	return sb.String()
}

func writeHeader(sb *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	sb.WriteString(name)
	sb.WriteString(": ")
	sb.WriteString(value)
	sb.WriteByte('\n')
}
