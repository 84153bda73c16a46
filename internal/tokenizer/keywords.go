package tokenizer

import "contentdex/internal/model"

// MatchKeywords evaluates multi-word keyword definitions against a
// document's word-ID frequency map. A keyword matches only when every
// member word occurs; the match count is the scarcest member's frequency.
func MatchKeywords(wordCounts map[int64]int, keywords []model.Keyword) map[int64]int {
	if len(keywords) == 0 || len(wordCounts) == 0 {
		return nil
	}
	matches := make(map[int64]int)
	for _, kw := range keywords {
		if len(kw.WordIDs) == 0 {
			continue
		}
		minCount := 0
		for i, wid := range kw.WordIDs {
			c, ok := wordCounts[wid]
			if !ok {
				minCount = 0
				break
			}
			if i == 0 || c < minCount {
				minCount = c
			}
		}
		if minCount > 0 {
			matches[kw.ID] = minCount
		}
	}
	if len(matches) == 0 {
		return nil
	}
	return matches
}
