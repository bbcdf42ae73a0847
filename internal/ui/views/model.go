package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"modeldeck/internal/domain"
)

// ModelRenderer renders catalog entries
type ModelRenderer struct {
	styles   *Styles
	showTags bool
}

// NewModelRenderer creates a renderer; showTags adds the tag column
func NewModelRenderer(styles *Styles, showTags bool) *ModelRenderer {
	return &ModelRenderer{styles: styles, showTags: showTags}
}

// RenderRow renders one result line, truncated to width
func (r *ModelRenderer) RenderRow(m domain.Model, selected bool, width int) string {
	marker := "  "
	if m.Featured {
		marker = r.styles.Featured.Render("★ ")
	}

	name := m.Name
	if selected {
		name = r.styles.Highlight.Render(name)
	}

	parts := []string{marker + name}
	if m.Author != "" {
		parts = append(parts, r.styles.Dim.Render("by "+m.Author))
	}
	if m.Parameters != "" {
		parts = append(parts, m.Parameters)
	}
	if m.SizeBytes > 0 {
		parts = append(parts, HumanBytes(m.SizeBytes))
	}
	parts = append(parts, r.styles.Dim.Render(HumanCount(m.Downloads)+" ↓"))
	if r.showTags && len(m.Tags) > 0 {
		parts = append(parts, r.styles.Tag.Render("#"+strings.Join(m.Tags, " #")))
	}

	line := strings.Join(parts, "  ")
	if width > 0 && lipgloss.Width(line) > width {
		line = lipgloss.NewStyle().MaxWidth(width).Render(line)
	}
	if selected {
		line = r.styles.SelectionBg.Render(line)
	}
	return line
}

// RenderDetail renders the full record for the pager
func (r *ModelRenderer) RenderDetail(m domain.Model) string {
	var b strings.Builder
	b.WriteString(r.styles.Title.Render(m.Name))
	b.WriteString("\n\n")

	row := func(key, value string) {
		if value == "" {
			return
		}
		b.WriteString(r.styles.DetailKey.Render(key))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("ID", m.ID)
	row("Author", m.Author)
	row("Architecture", m.Architecture)
	row("Parameters", m.Parameters)
	if m.SizeBytes > 0 {
		row("Size", HumanBytes(m.SizeBytes))
	}
	row("Downloads", HumanCount(m.Downloads))
	if !m.Released.IsZero() {
		row("Released", m.Released.Format("2006-01-02"))
	}
	if m.Featured {
		row("Featured", "yes")
	}
	if len(m.Tags) > 0 {
		row("Tags", strings.Join(m.Tags, ", "))
	}
	if m.Summary != "" {
		b.WriteString("\n")
		b.WriteString(m.Summary)
		b.WriteString("\n")
	}
	return b.String()
}

// HumanBytes formats a byte count as 4.9 GB
func HumanBytes(n int64) string {
	const unit = 1000
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "kMGTPE"[exp])
}

// HumanCount formats 2450000 as 2.5M
func HumanCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
