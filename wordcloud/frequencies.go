// Package wordcloud renders PNG word clouds from analyzed documents.
package wordcloud

import "sort"

// Frequencies counts occurrences of each word and keeps the maxWords most
// frequent. Ties are broken alphabetically so the result is deterministic.
func Frequencies(words []string, maxWords int) map[string]int {
	counts := make(map[string]int, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		counts[w]++
	}
	if maxWords <= 0 || len(counts) <= maxWords {
		return counts
	}

	type entry struct {
		word  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for w, c := range counts {
		entries = append(entries, entry{w, c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].word < entries[j].word
	})

	top := make(map[string]int, maxWords)
	for _, e := range entries[:maxWords] {
		top[e.word] = e.count
	}
	return top
}
