package htmlutil

import (
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

type TableOptions struct {
	// UseFirstRowAsHeadings reads the <th> cells of the first row and appends
	// them to Headings instead of emitting the row.
	UseFirstRowAsHeadings bool
	Headings              []string
}

// TableToRows converts each row of `table` into a map of heading -> trimmed cell text,
// in document order. Cells without a heading are keyed by their column index.
// Rows of nested tables are not considered rows of `table`.
func TableToRows(table *goquery.Selection, opts TableOptions) []map[string]string {
	headings := make([]string, len(opts.Headings))
	copy(headings, opts.Headings)

	var output []map[string]string
	rows := ownRows(table)
	for rowIndex, tr := range rows {
		if rowIndex == 0 && opts.UseFirstRowAsHeadings {
			cells := tr.ChildrenFiltered("th")
			if cells.Length() == 0 {
				cells = tr.ChildrenFiltered("td")
			}
			for _, cell := range cells.Nodes {
				headings = append(headings, CleanText(cell))
			}
			continue
		}

		row := map[string]string{}
		for colIndex, cell := range tr.ChildrenFiltered("td").Nodes {
			key := strconv.Itoa(colIndex)
			if colIndex < len(headings) && headings[colIndex] != "" {
				key = headings[colIndex]
			}
			row[key] = CleanText(cell)
		}
		output = append(output, row)
	}

	return output
}

func ownRows(table *goquery.Selection) []*goquery.Selection {
	var rows []*goquery.Selection
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Closest("table").IsSelection(table) {
			rows = append(rows, tr)
		}
	})
	return rows
}
