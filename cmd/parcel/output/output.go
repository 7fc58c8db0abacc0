// Package output renders CLI messages and result rows.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb/geojson"
)

var (
	// Color styles for terminal output
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
)

// maxCell truncates long cell values in table output.
const maxCell = 48

// Success prints a success message
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, successStyle.Render("✓ "))
	fmt.Fprintf(w, format+"\n", args...)
}

// Warning prints a warning message
func Warning(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, warningStyle.Render("⚠ "))
	fmt.Fprintf(w, format+"\n", args...)
}

// Error prints an error message
func Error(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, errorStyle.Render("✗ "))
	fmt.Fprintf(w, format+"\n", args...)
}

// Info prints an info message
func Info(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, infoStyle.Render("ℹ "))
	fmt.Fprintf(w, format+"\n", args...)
}

// Muted prints a muted message
func Muted(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Section prints a section header
func Section(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, primaryStyle.Render(title))
	fmt.Fprintln(w, mutedStyle.Render(strings.Repeat("═", lipgloss.Width(title))))
	fmt.Fprintln(w)
}

// StatusIcon returns a colored icon for a shape status.
func StatusIcon(status string) string {
	switch status {
	case "active":
		return successStyle.Render("✓")
	case "draft":
		return warningStyle.Render("○")
	case "archived":
		return mutedStyle.Render("✗")
	default:
		return mutedStyle.Render("•")
	}
}

// JSON writes v as indented JSON. Geometries marshal as GeoJSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Rows prints rows as an aligned table. Columns are sorted, with id first;
// nested relation values are summarized.
func Rows(w io.Writer, rows []map[string]any) error {
	if len(rows) == 0 {
		Muted(w, "(no rows)")
		return nil
	}

	columns := Columns(rows)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.ToUpper(strings.Join(columns, "\t")))
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = Cell(row[col])
		}
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// Columns returns the union of row keys, id first and the rest sorted.
func Columns(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	var columns []string
	for _, row := range rows {
		for k := range row {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				columns = append(columns, k)
			}
		}
	}
	slices.SortFunc(columns, func(a, b string) int {
		switch {
		case a == b:
			return 0
		case a == "id":
			return -1
		case b == "id":
			return 1
		}
		return strings.Compare(a, b)
	})
	return columns
}

// Cell renders one value for table output.
func Cell(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		s = "NULL"
	case *geojson.Geometry:
		if x == nil {
			s = "NULL"
		} else {
			s = x.Type
		}
	case []map[string]any:
		s = fmt.Sprintf("[%d rows]", len(x))
	case map[string]any:
		if id, ok := x["id"]; ok {
			s = fmt.Sprintf("{id: %v}", id)
		} else {
			s = fmt.Sprintf("{%d fields}", len(x))
		}
	default:
		s = fmt.Sprint(x)
	}
	if len(s) > maxCell {
		s = s[:maxCell-1] + "…"
	}
	return s
}
