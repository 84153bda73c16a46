package extract

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"strings"

	"contentdex/internal/model"
)

const attachmentMaxBytes = 10 * 1024 * 1024

// emailExtractor parses .eml and .mbox containers with the stdlib mail
// machinery. Outlook stores (.msg, .pst) need a proprietary backend.
type emailExtractor struct {
	stagingRoot string
}

func (e *emailExtractor) Extensions() []string {
	return []string{"eml", "mbox", "msg", "pst"}
}

func (e *emailExtractor) Extract(ctx context.Context, fi model.FileInfo) model.Extracted {
	if fi.Ext == "msg" || fi.Ext == "pst" {
		return model.ExtractError{
			Kind:   model.KindMissingDependency,
			Detail: fmt.Sprintf("no %s backend available", fi.Ext),
		}
	}

	data, err := os.ReadFile(fi.Path)
	if err != nil {
		return model.ExtractError{
			Kind:   model.KindPermanent,
			Detail: fmt.Sprintf("reading %s: %v", fi.Name, err),
		}
	}

	var raws [][]byte
	if fi.Ext == "mbox" {
		raws = splitMbox(data)
	} else {
		raws = [][]byte{data}
	}
	if len(raws) == 0 {
		return model.ExtractError{
			Kind:   model.KindInvalidData,
			Detail: fmt.Sprintf("%s contains no messages", fi.Name),
		}
	}

	result := model.Email{}
	var stagingDir string
	for _, raw := range raws {
		msg, err := mail.ReadMessage(bytes.NewReader(raw))
		if err != nil {
			continue
		}
		parsed := model.EmailMessage{
			From:      msg.Header.Get("From"),
			To:        msg.Header.Get("To"),
			Cc:        msg.Header.Get("Cc"),
			Bcc:       msg.Header.Get("Bcc"),
			Subject:   decodeHeader(msg.Header.Get("Subject")),
			Date:      msg.Header.Get("Date"),
			MessageID: msg.Header.Get("Message-Id"),
		}

		body, attachments := readParts(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
		parsed.Body = body
		result.Messages = append(result.Messages, parsed)

		for _, att := range attachments {
			if stagingDir == "" {
				stagingDir, err = StageDir(e.stagingRoot, fi.Name)
				if err != nil {
					return model.ExtractError{Kind: model.KindPermanent, Detail: err.Error()}
				}
			}
			if err := writeMember(stagingDir, att.name, att.content); err != nil {
				continue
			}
			result.AttachmentCount++
		}
	}
	if len(result.Messages) == 0 {
		return model.ExtractError{
			Kind:   model.KindInvalidData,
			Detail: fmt.Sprintf("no parseable messages in %s", fi.Name),
		}
	}
	result.AttachmentsDir = stagingDir
	return result
}

type attachment struct {
	name    string
	content []byte
}

// readParts walks a message body, concatenating text parts and collecting
// attachments. Nested multiparts are followed one level at a time.
func readParts(contentType, transferEncoding string, body io.Reader) (string, []attachment) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		text, _ := io.ReadAll(io.LimitReader(decodeBody(body, transferEncoding), attachmentMaxBytes))
		return string(text), nil
	}

	mr := multipart.NewReader(body, params["boundary"])
	var (
		text        strings.Builder
		attachments []attachment
	)
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		partType, partParams, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		encoding := part.Header.Get("Content-Transfer-Encoding")

		if strings.HasPrefix(partType, "multipart/") {
			nestedText, nestedAtts := readParts(part.Header.Get("Content-Type"), encoding, part)
			text.WriteString(nestedText)
			attachments = append(attachments, nestedAtts...)
			continue
		}

		filename := part.FileName()
		if filename == "" {
			filename = partParams["name"]
		}
		if filename != "" {
			content, err := io.ReadAll(io.LimitReader(decodeBody(part, encoding), attachmentMaxBytes+1))
			if err == nil && int64(len(content)) <= attachmentMaxBytes {
				attachments = append(attachments, attachment{name: filename, content: content})
			}
			continue
		}
		if strings.HasPrefix(partType, "text/") || partType == "" {
			content, err := io.ReadAll(io.LimitReader(decodeBody(part, encoding), attachmentMaxBytes))
			if err == nil {
				if text.Len() > 0 {
					text.WriteByte('\n')
				}
				partText := string(content)
				if partType == "text/html" {
					partText = stripHTML(partText)
				}
				text.WriteString(partText)
			}
		}
	}
	return text.String(), attachments
}

func decodeBody(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

func decodeHeader(v string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}

// splitMbox separates an mbox file into raw messages on "From " lines.
func splitMbox(data []byte) [][]byte {
	var (
		messages [][]byte
		current  bytes.Buffer
	)
	flush := func() {
		if current.Len() > 0 {
			msg := make([]byte, current.Len())
			copy(msg, current.Bytes())
			messages = append(messages, msg)
			current.Reset()
		}
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "From ") {
			flush()
			continue
		}
		// unescape the mbox ">From " quoting
		if strings.HasPrefix(line, ">From ") {
			line = line[1:]
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	flush()
	return messages
}
