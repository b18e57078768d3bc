package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/referents-ia/portail/internal/contacts"
	"github.com/referents-ia/portail/internal/tools"
	"github.com/referents-ia/portail/internal/training"
)

func (s *Server) handleSearchContacts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.deps.Contacts.List(ctx, contacts.Filter{
		ContactType: request.GetString("contact_type", ""),
		Query:       request.GetString("query", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("Aucun contact ne correspond à cette recherche."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Contacts (%d)\n\n", len(list))
	for _, c := range list {
		fmt.Fprintf(&sb, "## %s\n", c.Name)
		writeField(&sb, "Type", c.ContactType)
		writeField(&sb, "Organisation", c.Organization)
		writeField(&sb, "Région", c.Region)
		writeField(&sb, "Email", c.Email)
		writeField(&sb, "Téléphone", c.Phone)
		if c.Description != "" {
			sb.WriteString("\n" + c.Description + "\n")
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleListAITools(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := tools.Filter{Category: request.GetString("category", "")}
	if request.GetBool("sovereign_only", false) {
		yes := true
		f.Sovereign = &yes
	}
	list, err := s.deps.Tools.List(ctx, f)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing tools failed: %v", err)), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("Aucun outil dans cette catégorie."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Outils IA (%d)\n\n", len(list))
	for _, t := range list {
		name := t.Name
		if t.Sovereign {
			name += " (souverain)"
		}
		fmt.Fprintf(&sb, "## %s\n", name)
		writeField(&sb, "Catégorie", t.Category)
		writeField(&sb, "Éditeur", t.Vendor)
		writeField(&sb, "URL", t.URL)
		if len(t.Tags) > 0 {
			writeField(&sb, "Tags", strings.Join(t.Tags, ", "))
		}
		if t.Description != "" {
			sb.WriteString("\n" + t.Description + "\n")
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleListTrainingCourses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.deps.Training.List(ctx, training.Filter{Level: request.GetString("level", "")})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing courses failed: %v", err)), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("Aucune formation pour ce niveau."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Formations (%d)\n\n", len(list))
	for _, c := range list {
		fmt.Fprintf(&sb, "## %s\n", c.Title)
		writeField(&sb, "Organisme", c.Provider)
		writeField(&sb, "Niveau", c.Level)
		writeField(&sb, "Format", c.Format)
		writeField(&sb, "Durée", c.Duration)
		writeField(&sb, "URL", c.URL)
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleGetPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := request.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: slug"), nil
	}
	p := s.deps.Pages.Get(slug)
	if p == nil {
		var slugs []string
		for _, p := range s.deps.Pages.List() {
			slugs = append(slugs, p.Slug)
		}
		return mcp.NewToolResultError(fmt.Sprintf("unknown page %q; available: %s", slug, strings.Join(slugs, ", "))), nil
	}
	return mcp.NewToolResultText(p.Markdown), nil
}

func writeField(sb *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "- **%s**: %s\n", label, value)
}
