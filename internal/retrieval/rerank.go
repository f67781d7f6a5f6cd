package retrieval

import (
	"sort"
	"strings"
	"unicode"
)

const (
	lexicalLengthScale = float32(10.0)
	maxLexicalScore    = float32(0.4)
	nameMatchBonus     = float32(0.1)

	// Queries at or above this many words skip the lexical pass; long prompts
	// dilute term overlap to the point where the scores are noise.
	rerankWordLimit = 250
)

var lexicalStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "was": {}, "were": {}, "with": {},
}

// lexicalScore computes a lightweight lexical relevance score for a snippet
// relative to a query. The score is normalized to a predictable range so it
// can be blended with vector scores.
func lexicalScore(query, snippetText, fileName string) float32 {
	queryTokens := filterStopwords(tokenize(query))
	if len(queryTokens) == 0 {
		return 0
	}

	snippetTokens := tokenize(snippetText)
	if len(snippetTokens) == 0 {
		return 0
	}

	snippetFreq := make(map[string]int, len(snippetTokens))
	for _, token := range snippetTokens {
		snippetFreq[token]++
	}

	var rawMatches int
	for _, token := range queryTokens {
		rawMatches += snippetFreq[token]
	}

	score := (float32(rawMatches) / (1 + float32(len(snippetTokens)))) * lexicalLengthScale

	if fileName != "" {
		nameTokens := tokenize(fileName)
		if len(nameTokens) > 0 {
			nameSet := make(map[string]struct{}, len(nameTokens))
			for _, token := range nameTokens {
				nameSet[token] = struct{}{}
			}
			var nameMatches int
			for _, token := range queryTokens {
				if _, ok := nameSet[token]; ok {
					nameMatches++
				}
			}
			score += float32(nameMatches) * nameMatchBonus
		}
	}

	if score > maxLexicalScore {
		return maxLexicalScore
	}
	if score < 0 {
		return 0
	}
	return score
}

// rerankSnippets orders snippets by lexical score and keeps the best topN.
// The sort is stable so equally scored snippets keep their vector ranking.
func rerankSnippets(query string, snippets []Snippet, topN int) []Snippet {
	scored := make([]scoredSnippet, len(snippets))
	for i, s := range snippets {
		scored[i] = scoredSnippet{snippet: s, score: lexicalScore(query, s.Text, s.Name)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if topN > len(scored) {
		topN = len(scored)
	}
	result := make([]Snippet, topN)
	for i := 0; i < topN; i++ {
		result[i] = scored[i].snippet
	}
	return result
}

type scoredSnippet struct {
	snippet Snippet
	score   float32
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	tokens := strings.Fields(builder.String())
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

func filterStopwords(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, isStop := lexicalStopwords[token]; isStop {
			continue
		}
		result = append(result, token)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
