// Package tokenizer converts extracted text into a lossless stream of
// (word, punct_before, punct_after, spacing) tokens. URLs, emails, dates
// and bare domains are recognized before general word splitting and come
// out as single tokens even when they contain characters that normally
// split words.
package tokenizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"contentdex/internal/model"
)

// entityPatterns are tried in priority order at every candidate position.
// The longest match wins; ties resolve to the earlier pattern.
var entityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?i:https?|ftp)://[^\s<>"']+`),
	regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
	regexp.MustCompile(`^(?:\d{1,2}[./-]\d{1,2}[./-]\d{2,4}|(?i:\d{1,2}\s+)?(?i:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-zA-Z]*\.?\s+\d{1,2},?\s+\d{2,4})`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`^(?i:www)\.[^\s<>"']+`),
	regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.-]*\.(?i:com|org|net|edu|gov|mil|int|io|co|ai|dev|app|info|biz)\b`),
}

// wordPattern matches a plain word: starts and ends on a word character,
// apostrophes and hyphens allowed inside ("don't", "state-of-the-art").
var wordPattern = regexp.MustCompile(`^[\p{L}\p{N}_]+(?:['-]+[\p{L}\p{N}_]+)*`)

// Sanitize strips NUL and C0 control characters except TAB, LF and CR.
func Sanitize(text string) string {
	if !strings.ContainsFunc(text, isStripped) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if !isStripped(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isStripped(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return r < 0x20 || r == 0x7f
}

type span struct {
	start, end int
	word       string
}

// Tokenize splits text into lossless tokens. Concatenating
// PunctBefore+Word+PunctAfter+Spacing over all tokens reproduces the
// sanitized input with words lowercased.
func Tokenize(text string) []model.Token {
	text = Sanitize(text)
	spans := scan(text)
	if len(spans) == 0 {
		return nil
	}

	tokens := make([]model.Token, len(spans))
	for i, sp := range spans {
		tokens[i].Word = sp.word
	}

	// leading material belongs to the first token
	tokens[0].PunctBefore = text[:spans[0].start]

	for i := 1; i < len(spans); i++ {
		gap := text[spans[i-1].end:spans[i].start]
		after, spacing, before := splitGap(gap)
		tokens[i-1].PunctAfter = after
		tokens[i-1].Spacing = spacing
		tokens[i].PunctBefore = before
	}

	trailing := text[spans[len(spans)-1].end:]
	after, spacing, before := splitGap(trailing)
	last := len(tokens) - 1
	tokens[last].PunctAfter = after
	tokens[last].Spacing = spacing + before
	return tokens
}

// Words returns the ordered lowercase word list without punctuation
// metadata, used for titles.
func Words(text string) []string {
	spans := scan(Sanitize(text))
	words := make([]string, len(spans))
	for i, sp := range spans {
		words[i] = sp.word
	}
	return words
}

// Frequencies counts occurrences of each word in the token stream.
func Frequencies(tokens []model.Token) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t.Word]++
	}
	return freq
}

// Reconstruct rebuilds the sanitized text (words lowercased) from tokens.
func Reconstruct(tokens []model.Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.PunctBefore)
		b.WriteString(t.Word)
		b.WriteString(t.PunctAfter)
		b.WriteString(t.Spacing)
	}
	return b.String()
}

// scan performs the single left-to-right sweep, emitting entity and word
// spans in document order.
func scan(text string) []span {
	var spans []span
	pos := 0
	for pos < len(text) {
		r, size := utf8.DecodeRuneInString(text[pos:])
		if !isWordRune(r) {
			pos += size
			continue
		}
		word, length := matchAt(text[pos:])
		spans = append(spans, span{start: pos, end: pos + length, word: word})
		pos += length
	}
	return spans
}

// matchAt returns the lowercased token starting at the head of rest and
// the number of bytes consumed. Entities take precedence over plain
// words; among entities the longest match wins.
func matchAt(rest string) (string, int) {
	best := -1
	for _, re := range entityPatterns {
		loc := re.FindStringIndex(rest)
		if loc != nil && loc[1] > best {
			best = loc[1]
		}
	}
	if best > 0 {
		return strings.ToLower(rest[:best]), best
	}
	loc := wordPattern.FindStringIndex(rest)
	if loc == nil {
		// isWordRune guaranteed at least one word character
		_, size := utf8.DecodeRuneInString(rest)
		return strings.ToLower(rest[:size]), size
	}
	return strings.ToLower(rest[:loc[1]]), loc[1]
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// splitGap divides the inter-token material into the previous token's
// trailing punctuation, the whitespace-bearing middle, and the next
// token's leading punctuation. The three parts concatenate back to gap.
func splitGap(gap string) (after, spacing, before string) {
	first := strings.IndexFunc(gap, unicode.IsSpace)
	if first < 0 {
		return gap, "", ""
	}
	last := strings.LastIndexFunc(gap, unicode.IsSpace)
	_, lastSize := utf8.DecodeRuneInString(gap[last:])
	return gap[:first], gap[first : last+lastSize], gap[last+lastSize:]
}
