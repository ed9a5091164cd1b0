package extract

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// maxSpan caps rowspan/colspan so a hostile attribute cannot blow up the grid
const maxSpan = 100

// Table is an HTML table flattened into a rectangular grid. Row and column
// spans are expanded by repeating the spanning cell's text.
type Table struct {
	Headers []string   // Text of the first all-<th> row; nil if none
	Rows    [][]string // Data rows, one entry per expanded column
	Text    string     // Visible text of the whole table, caption included
}

// ParseTables returns every table in the document, in document order.
// Nested tables are parsed separately and do not leak rows into their parent.
func ParseTables(htmlContent string) ([]Table, error) {
	doc, err := ParseHTML(htmlContent)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	nodes := FindAll(doc, IsElement("table"))
	tables := make([]Table, 0, len(nodes))
	for _, n := range nodes {
		tables = append(tables, parseTable(n))
	}
	return tables, nil
}

// Column returns the index of the header matching name case-insensitively,
// or -1.
func (t Table) Column(name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, h := range t.Headers {
		if strings.ToLower(strings.TrimSpace(h)) == name {
			return i
		}
	}
	return -1
}

// Contains reports whether the table's text contains substr (case-sensitive)
func (t Table) Contains(substr string) bool {
	return strings.Contains(t.Text, substr)
}

// Records zips each data row with the lower-cased headers. Rows with no
// non-empty cell are skipped; cells beyond the header count are dropped.
func (t Table) Records() []map[string]string {
	if len(t.Headers) == 0 {
		return nil
	}

	headers := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var records []map[string]string
	for _, row := range t.Rows {
		rec := make(map[string]string, len(headers))
		empty := true
		for i, cell := range row {
			if i >= len(headers) {
				break
			}
			if _, dup := rec[headers[i]]; dup {
				continue
			}
			rec[headers[i]] = cell
			if cell != "" {
				empty = false
			}
		}
		if !empty {
			records = append(records, rec)
		}
	}
	return records
}

func parseTable(table *html.Node) Table {
	grid, headerRow := expandSpans(table)

	t := Table{Text: VisibleText(table)}
	start := 0
	for start < len(grid) && headerRow[start] {
		start++
	}
	if start > 0 {
		t.Headers = grid[0]
	}
	if start < len(grid) {
		t.Rows = grid[start:]
	}
	return t
}

// ownRows returns the <tr> elements that belong to table itself
func ownRows(table *html.Node) []*html.Node {
	var rows []*html.Node

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "table":
				continue
			case "tr":
				rows = append(rows, c)
			default:
				walk(c)
			}
		}
	}

	walk(table)
	return rows
}

// expandSpans lays the table's cells out on a grid, honoring rowspan and
// colspan. Rows without any cells of their own are skipped. headerRow[i]
// reports whether grid row i was made only of <th> cells.
func expandSpans(table *html.Node) (grid [][]string, headerRow []bool) {
	type pending struct {
		text      string
		remaining int
	}
	carry := map[int]pending{}

	for _, tr := range ownRows(table) {
		var row []string
		col := 0
		placeCarried := func() {
			for {
				p, ok := carry[col]
				if !ok {
					return
				}
				row = append(row, p.text)
				if p.remaining <= 1 {
					delete(carry, col)
				} else {
					carry[col] = pending{text: p.text, remaining: p.remaining - 1}
				}
				col++
			}
		}

		hasCell, allTH := false, true
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
				continue
			}
			hasCell = true
			if c.Data == "td" {
				allTH = false
			}
			placeCarried()

			text := VisibleText(c)
			colspan := spanAttr(c, "colspan")
			rowspan := spanAttr(c, "rowspan")
			for i := 0; i < colspan; i++ {
				row = append(row, text)
				if rowspan > 1 {
					carry[col] = pending{text: text, remaining: rowspan - 1}
				}
				col++
			}
		}
		placeCarried()

		if hasCell {
			grid = append(grid, row)
			headerRow = append(headerRow, allTH)
		}
	}
	return grid, headerRow
}

func spanAttr(n *html.Node, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(GetAttribute(n, key)))
	if err != nil || v < 1 {
		return 1
	}
	if v > maxSpan {
		return maxSpan
	}
	return v
}
