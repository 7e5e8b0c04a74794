// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// domains_cmd.go - Lists the chat domains.
package cli

import (
	"fmt"

	"github.com/jeranaias/domainchat/internal/domain"
)

// DomainInfo is the JSON form of a domain.
type DomainInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Icon         string   `json:"icon"`
	QuickReplies []string `json:"quick_replies"`
}

// Domains returns every domain in tab order.
func Domains() []DomainInfo {
	all := domain.All()
	infos := make([]DomainInfo, len(all))
	for i, d := range all {
		infos[i] = DomainInfo{
			ID:           string(d.ID),
			Name:         d.Name,
			Icon:         d.Icon,
			QuickReplies: domain.PersonaFor(d.ID).QuickReplies,
		}
	}
	return infos
}

// HandleDomains prints the domains and their quick replies.
func HandleDomains(args Args) error {
	infos := Domains()
	if args.JSON {
		return NewJSONResponse("domains", infos).Print()
	}

	fmt.Fprintln(out, TitleStyle.Render("Domains"))
	for _, d := range infos {
		fmt.Fprintf(out, "%s %s %s\n", d.Icon, RenderDomain(domain.ID(d.ID)), DimStyle.Render("("+d.ID+")"))
		for i, q := range d.QuickReplies {
			fmt.Fprintf(out, "    %d. %s\n", i+1, q)
		}
	}
	return nil
}
