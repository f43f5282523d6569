package nntp

import (
	"strconv"
	"strings"
)

// listingLines splits a listing payload on "\n", then drops the first
// line and the last two. Bodies too short to trim yield nothing.
func listingLines(body string) []string {
	lines := strings.Split(body, "\n")
	if len(lines) < 3 {
		return nil
	}
	return lines[1 : len(lines)-2]
}

// parseActive turns "list active" lines into group -> count. A line
// needs a name and a count token; an unparseable count is 0 and later
// duplicates win.
func parseActive(body string) map[string]int {
	groups := make(map[string]int)
	for _, line := range listingLines(body) {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 0 {
			n = 0
		}
		groups[fields[0]] = n
	}
	return groups
}

// parseArticleIDs returns listgroup lines in server order.
func parseArticleIDs(body string) []string {
	lines := listingLines(body)
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, strings.TrimRight(line, "\r"))
	}
	return ids
}
