package render

import (
	"regexp"
	"strings"
)

var linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^\)]+)\)`)

// Sections splits free-form content into display blocks: lines holding only
// "---" become separators, everything between them becomes text blocks.
// Empty sections are dropped.
func Sections(content string) Blocks {
	var (
		blocks  Blocks
		current []string
	)
	flush := func() {
		text := strings.Join(current, "\n")
		if strings.TrimSpace(text) != "" {
			blocks = append(blocks, Text(text))
		}
		current = nil
	}
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "---" {
			flush()
			blocks = append(blocks, Separator())
			continue
		}
		current = append(current, line)
	}
	flush()
	return blocks
}

// ParseLinks extracts "[Title](url)" pairs from text, in order.
func ParseLinks(text string) []Link {
	matches := linkPattern.FindAllStringSubmatch(text, -1)
	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		links = append(links, Link{Title: m[1], URL: m[2]})
	}
	return links
}
