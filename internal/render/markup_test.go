package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionsSplitsOnSeparatorLines(t *testing.T) {
	blocks := Sections("first part\nstill first\n---\nsecond part")

	require.Len(t, blocks, 3)
	assert.Equal(t, "first part\nstill first", blocks[0].Text)
	assert.Equal(t, BlockSeparator, blocks[1].Kind)
	assert.Equal(t, "second part", blocks[2].Text)
}

func TestSectionsSeparatorNeedsOwnLine(t *testing.T) {
	blocks := Sections("a --- b")
	require.Len(t, blocks, 1)
	assert.Equal(t, "a --- b", blocks[0].Text)

	// Leading or trailing whitespace around the dashes still separates.
	blocks = Sections("a\n  ---  \nb")
	require.Len(t, blocks, 3)
	assert.Equal(t, BlockSeparator, blocks[1].Kind)
}

func TestSectionsDropsEmptySections(t *testing.T) {
	blocks := Sections("---\nonly part\n---")
	require.Len(t, blocks, 3)
	assert.Equal(t, BlockSeparator, blocks[0].Kind)
	assert.Equal(t, "only part", blocks[1].Text)
	assert.Equal(t, BlockSeparator, blocks[2].Kind)
}

func TestParseLinks(t *testing.T) {
	links := ParseLinks("see [Changelog](https://moddy.app/changelog) and\n[Docs](https://moddy.app/docs)")

	require.Len(t, links, 2)
	assert.Equal(t, Link{Title: "Changelog", URL: "https://moddy.app/changelog"}, links[0])
	assert.Equal(t, Link{Title: "Docs", URL: "https://moddy.app/docs"}, links[1])

	assert.Empty(t, ParseLinks("no links here"))
	assert.Empty(t, ParseLinks("[broken](no-close"))
}
