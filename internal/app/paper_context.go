package app

import (
	"strings"
	"unicode/utf8"

	"knowdex/internal/model"
)

const (
	// Full text shorter than this is treated as a failed extraction.
	minFullTextRunes  = 100
	maxPaperRunes     = 10000
	emptyPaperContext = "No papers have been added to this workspace yet."
)

// BuildPaperContext renders the workspace's papers into the block of text sent
// to the provider alongside the user's question.
func BuildPaperContext(papers []model.Paper) string {
	if len(papers) == 0 {
		return emptyPaperContext
	}
	blocks := make([]string, 0, len(papers))
	for _, p := range papers {
		content := p.Abstract
		if utf8.RuneCountInString(p.FullText) > minFullTextRunes {
			content = p.FullText
		}
		blocks = append(blocks, "Title: "+p.Title+"\nAuthors: "+p.Authors+"\nContent: "+truncateRunes(content, maxPaperRunes))
	}
	return strings.Join(blocks, "\n\n")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
