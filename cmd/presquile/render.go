package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const labelWidth = 20

// status tags a one-line outcome such as "[OK]".
type status struct {
	tag   string
	color text.Colors
}

var (
	statusOK    = status{"OK", text.Colors{text.FgGreen}}
	statusWarn  = status{"WARN", text.Colors{text.FgYellow}}
	statusError = status{"ERROR", text.Colors{text.FgRed}}
)

// column describes one table column.
type column struct {
	title string
	right bool
}

// printer writes human-readable command output to stdout.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(cmd *cobra.Command) *printer {
	w := cmd.OutOrStdout()
	return &printer{w: w, color: isTerminal(w)}
}

// isTerminal reports whether w is a terminal. NO_COLOR disables colour
// everywhere.
func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func (p *printer) paint(c text.Colors, s string) string {
	if !p.color {
		return s
	}
	return text.Escape(s, c.EscapeSeq())
}

// field prints an aligned "label: value" line.
func (p *printer) field(label, format string, args ...any) {
	fmt.Fprintf(p.w, "  %-*s %s\n", labelWidth, label+":", fmt.Sprintf(format, args...))
}

// status prints a field whose value starts with a coloured outcome tag.
func (p *printer) status(label string, s status, message string) {
	line := fmt.Sprintf("  %-*s [%s] %s", labelWidth, label+":", s.tag, message)
	fmt.Fprintln(p.w, p.paint(s.color, strings.TrimRight(line, " ")))
}

func (p *printer) heading(title string) {
	line := "== " + strings.TrimSpace(title) + " =="
	fmt.Fprintln(p.w, p.paint(text.Colors{text.FgBlue}, line))
	fmt.Fprintln(p.w, p.paint(text.Colors{text.FgBlue}, strings.Repeat("-", len(line))))
}

func (p *printer) table(cols []column, rows [][]string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(p.w)
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		header[i] = c.title
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft}
		if c.right {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	tw.Render()
}

// encodeJSON prints v as indented JSON. It never colours.
func (p *printer) encodeJSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
