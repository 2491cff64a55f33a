// Package formatter renders records as markdown tables for terminal previews.
package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"pokedex/internal/models"

	"github.com/mattn/go-runewidth"
)

var columns = []string{"ID", "Name", "Type_1", "Type_2", "HP", "Attack", "Defense", "Egg_Groups", "Generation", "Total_Stats"}

// FormatRecords renders up to limit records as an aligned markdown table.
// A limit of 0 renders every record. Absent values render as empty cells.
func FormatRecords(records []models.Record, limit int) string {
	shown := records
	if limit > 0 && len(records) > limit {
		shown = records[:limit]
	}

	rows := make([][]string, 0, len(shown)+2)
	rows = append(rows, columns, nil)

	for _, r := range shown {
		rows = append(rows, []string{
			strconv.Itoa(r.ID),
			r.Name,
			r.Type1,
			optString(r.Type2),
			optInt(r.HP),
			optInt(r.Attack),
			optInt(r.Defense),
			strings.Join(r.EggGroups, ", "),
			strconv.Itoa(r.Generation),
			strconv.Itoa(r.TotalStats),
		})
	}

	lines := alignTable(rows)

	if hidden := len(records) - len(shown); hidden > 0 {
		lines = append(lines, "", fmt.Sprintf("... and %d more", hidden))
	}

	return strings.Join(lines, "\n")
}

// alignTable pads cells to the display width of their column.
// A nil row is rendered as the separator.
func alignTable(table [][]string) []string {
	colCount := 0
	for _, row := range table {
		colCount = max(colCount, len(row))
	}

	colWidths := make([]int, colCount)

	for _, row := range table {
		for i, cell := range row {
			colWidths[i] = max(colWidths[i], runewidth.StringWidth(escapeCell(cell)))
		}
	}

	// Ensure min width for separator (usually 3 dashes "---")
	for i := range colWidths {
		colWidths[i] = max(colWidths[i], 3)
	}

	result := make([]string, 0, len(table))

	for _, row := range table {
		var sb strings.Builder

		sb.WriteString("|")

		for j := range colCount {
			sb.WriteString(" ")

			if row == nil {
				sb.WriteString(strings.Repeat("-", colWidths[j]))
			} else {
				content := ""
				if j < len(row) {
					content = escapeCell(row[j])
				}

				// Pad with spaces based on display width
				sb.WriteString(runewidth.FillRight(content, colWidths[j]))
			}

			sb.WriteString(" |")
		}

		result = append(result, sb.String())
	}

	return result
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func optString(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}

	return strconv.Itoa(*v)
}
