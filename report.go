package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
)

// reporter writes the user facing progress lines.
type reporter struct {
	w    io.Writer
	bad  lipgloss.Style
	good lipgloss.Style
}

func newReporter(w io.Writer) *reporter {
	r := lipgloss.NewRenderer(w)
	return &reporter{
		w:    w,
		bad:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		good: r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
	}
}

func (r *reporter) found(n int)    { fmt.Fprintf(r.w, "%d references found\n", n) }
func (r *reporter) replaced(n int) { fmt.Fprintf(r.w, "%d references replaced\n", n) }

func (r *reporter) done(path string) {
	fmt.Fprintf(r.w, "written to %s\n", path)
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, r.good.Render("DONE"))
}

func (r *reporter) fail(err error) {
	fmt.Fprintf(r.w, "%s %v\n", r.bad.Render("ERROR:"), err)
	var d detailer
	if errors.As(err, &d) {
		for _, line := range d.details() {
			fmt.Fprintf(r.w, "    %s\n", line)
		}
	}
}

// summary lists every referenced identifier; credentials stay out of it.
func (r *reporter) summary(refs *refTable, creds map[string]credential) {
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Hex", "Base64", "UUID", "Tokens", "Resolved"})
	for _, h := range refs.order {
		id, _ := parseIdent(h)
		_, ok := creds[h]
		t.AppendRow(table.Row{id.Hex, id.Base64, id.UUID(), refs.uses[h], ok})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", fmt.Sprintf("%d/%d", len(creds), refs.Len())})
	t.Render()
}
