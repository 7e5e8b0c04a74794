// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/ui/styles"
	"github.com/jeranaias/domainchat/internal/util"
)

// =============================================================================
// DOMAIN TABS
// =============================================================================

// DomainTabs is the header row: brand, then one tab per domain.
type DomainTabs struct {
	Title  string
	Active domain.ID
	Width  int
	theme  *styles.Theme
}

// NewDomainTabs creates the tab row with the default domain active.
func NewDomainTabs(theme *styles.Theme) *DomainTabs {
	return &DomainTabs{
		Title:  "domainchat",
		Active: domain.Default,
		Width:  80,
		theme:  theme,
	}
}

// SetActive marks id as the selected tab.
func (d *DomainTabs) SetActive(id domain.ID) {
	d.Active = id
}

// SetWidth updates the available width.
func (d *DomainTabs) SetWidth(width int) {
	d.Width = width
}

// label returns the tab text. Narrow terminals drop the icon.
func (d *DomainTabs) label(dom domain.Domain) string {
	if d.Width < 60 {
		return dom.Name
	}
	return dom.Icon + " " + dom.Name
}

// View renders the tab row.
func (d *DomainTabs) View() string {
	tabs := make([]string, 0, len(domain.All()))
	for _, dom := range domain.All() {
		tabs = append(tabs, d.theme.TabFor(dom.ID, dom.ID == d.Active).Render(d.label(dom)))
	}
	row := strings.Join(tabs, d.theme.TabGap.Render("│"))

	brand := d.theme.HeaderBrand.Render(d.Title)
	gap := d.Width - lipgloss.Width(brand) - lipgloss.Width(row) - 2
	if gap < 1 {
		// No room for the brand.
		return d.theme.Header.Width(d.Width).Render(util.TruncateWidth(row, d.Width))
	}
	return d.theme.Header.Width(d.Width).Render(brand + strings.Repeat(" ", gap) + row)
}
