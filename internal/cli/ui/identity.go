package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/symfetch/symfetch/internal/locator"
	"github.com/symfetch/symfetch/internal/peinfo"
)

var (
	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Width(11)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// RenderIdentity formats the parsed module identity and derived record
// for display before the download starts.
func RenderIdentity(id peinfo.Identity, rec locator.Record) string {
	rows := []struct {
		label, value string
	}{
		{"Module", rec.ModulePath},
		{"Symbols", id.SymbolFileBase + ".pdb"},
		{"Signature", id.Signature()},
		{"Age", fmt.Sprintf("%d", id.Age)},
		{"Key", rec.LookupKey},
		{"Archive", rec.ArchivePath},
	}

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(labelStyle.Render(r.label + ":"))
		b.WriteString(" ")
		b.WriteString(valueStyle.Render(r.value))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
