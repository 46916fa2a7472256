package docparse

import (
	"regexp"
	"strings"

	"github.com/Faitltd/houzz-to-zoho/internal/domain/extract"
)

// cellGapRe separates cells in an aligned text line: a tab or a run of two
// or more spaces.
var cellGapRe = regexp.MustCompile(`\t|\s{2,}`)

// inferTables recovers grid structure from page text. Consecutive lines
// that split into two or more cells form a table; a single such line is
// left to the text strategies instead.
func inferTables(text string) []extract.Table {
	var tables []extract.Table
	var current extract.Table

	flush := func() {
		if len(current) >= 2 {
			tables = append(tables, current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		cells := splitCells(line)
		if len(cells) < 2 {
			flush()
			continue
		}
		current = append(current, cells)
	}
	flush()
	return tables
}

func splitCells(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	parts := cellGapRe.Split(line, -1)
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}
