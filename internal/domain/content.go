package domain

import (
	"fmt"
	"strings"
)

// ContentMode selects which part of an article a retrieval returns.
// The zero value is ContentBody.
type ContentMode int

const (
	ContentBody ContentMode = iota
	ContentFull
	ContentHeader
)

// Command returns the NNTP verb that fetches this part of an article.
func (m ContentMode) Command() string {
	switch m {
	case ContentFull:
		return "article"
	case ContentHeader:
		return "head"
	default:
		return "body"
	}
}

// HasHeaders reports whether a fetch in this mode includes the header block.
func (m ContentMode) HasHeaders() bool {
	return m == ContentFull || m == ContentHeader
}

func (m ContentMode) String() string {
	switch m {
	case ContentFull:
		return "full"
	case ContentHeader:
		return "header"
	default:
		return "body"
	}
}

// ParseContentMode accepts the CLI/API spellings. An empty string is body.
func ParseContentMode(s string) (ContentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "body":
		return ContentBody, nil
	case "full", "article":
		return ContentFull, nil
	case "header", "head":
		return ContentHeader, nil
	default:
		return ContentBody, fmt.Errorf("unknown content mode %q (want full, body or header)", s)
	}
}
