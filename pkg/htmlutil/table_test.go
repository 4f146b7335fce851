package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func parseTable(t testing.TB, markup string) *goquery.Selection {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatal(err)
	}
	table := doc.Find("table").First()
	require.Equal(t, 1, table.Length())
	return table
}

func TestTableToRows(t *testing.T) {
	testCases := []struct {
		name     string
		markup   string
		opts     TableOptions
		expected []map[string]string
	}{
		{
			name: "explicit headings",
			markup: `<table>
				<tr><td> 1 </td><td>two</td><td>
					3</td></tr>
				<tr><td>4</td><td>five</td><td>6</td></tr>
			</table>`,
			opts: TableOptions{Headings: []string{"a", "b", "c"}},
			expected: []map[string]string{
				{"a": "1", "b": "two", "c": "3"},
				{"a": "4", "b": "five", "c": "6"},
			},
		},
		{
			name: "first row as headings",
			markup: `<table>
				<tr><th>x</th><th>y</th></tr>
				<tr><td>1</td><td>2</td></tr>
			</table>`,
			opts: TableOptions{UseFirstRowAsHeadings: true},
			expected: []map[string]string{
				{"x": "1", "y": "2"},
			},
		},
		{
			name: "headings run short",
			markup: `<table>
				<tr><td>1</td><td>2</td><td>3</td></tr>
			</table>`,
			opts: TableOptions{Headings: []string{"a"}},
			expected: []map[string]string{
				{"a": "1", "1": "2", "2": "3"},
			},
		},
		{
			name: "header row without td yields empty map",
			markup: `<table>
				<tr><th>a</th><th>b</th></tr>
				<tr><td>1</td><td>&nbsp;</td></tr>
			</table>`,
			opts: TableOptions{Headings: []string{"a", "b"}},
			expected: []map[string]string{
				{},
				{"a": "1", "b": ""},
			},
		},
		{
			name: "nested table rows are skipped",
			markup: `<table>
				<tr><td>1</td><td>2</td></tr>
				<tr><td colspan="2"><table><tr><td>p1</td><td>p2</td></tr></table></td></tr>
			</table>`,
			opts: TableOptions{Headings: []string{"a", "b"}},
			expected: []map[string]string{
				{"a": "1", "b": "2"},
				{"a": "p1p2"},
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			rows := TableToRows(parseTable(t, test.markup), test.opts)
			diff := cmp.Diff(test.expected, rows)
			if diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestTableToRowsDoesNotMutateHeadings(t *testing.T) {
	headings := []string{"a"}
	table := parseTable(t, `<table><tr><th>b</th></tr><tr><td>1</td><td>2</td></tr></table>`)
	rows := TableToRows(table, TableOptions{UseFirstRowAsHeadings: true, Headings: headings})
	require.Equal(t, []string{"a"}, headings)
	require.Equal(t, []map[string]string{{"a": "1", "b": "2"}}, rows)
}
