package render

import (
	"fmt"
	"strings"

	"github.com/moddy-app/moddysystems/internal/domain"
)

// CategoryGlyph returns the glyph shown beside a ticket category.
func CategoryGlyph(category domain.TicketCategory) string {
	switch category {
	case domain.CategorySupport:
		return "🤝"
	case domain.CategoryBugReport:
		return "🐛"
	case domain.CategorySanctionAppeal:
		return "🔨"
	case domain.CategoryLegalRequest:
		return "⚖️"
	case domain.CategoryPaymentsBilling:
		return "💳"
	}
	return "❓"
}

// SupportPanel renders the panel posted by the !tickets command.
func SupportPanel() Blocks {
	return Blocks{Text(
		"### 🎫 Moddy Support Panel\n" +
			"Please select the category that matches your request below.\n" +
			"Our team will get back to you as soon as possible.",
	)}
}

// TicketControl renders the opening control message of a ticket thread. The
// claim/archive buttons are attached by the platform layer.
func TicketControl(t *domain.Ticket) Blocks {
	return Blocks{Text(fmt.Sprintf(
		"### %s New Ticket - %s\n"+
			"Ticket created by <@%s>\n"+
			"**User:** <@%s> (`%s`)\n"+
			"<t:%d:F>",
		CategoryGlyph(t.Category), t.Category.Label(),
		t.UserID, t.UserID, t.UserID, t.CreatedAt.Unix(),
	))}
}

// TicketInfo renders the category-specific context message from ticket
// metadata. Returns an empty payload when the category collects none.
func TicketInfo(t *domain.Ticket) Blocks {
	switch t.Category {
	case domain.CategorySupport:
		return supportInfo(t.Metadata)
	case domain.CategoryBugReport:
		return bugReportInfo(t.Metadata)
	case domain.CategorySanctionAppeal:
		return sanctionAppealInfo(t.Metadata)
	case domain.CategoryLegalRequest:
		return legalRequestInfo(t.Metadata)
	}
	return nil
}

func supportInfo(meta map[string]any) Blocks {
	lines := []string{"### 🎫 Ticket Information\n"}
	supportType, _ := meta["type"].(string)
	if supportType == "" {
		supportType = "unknown"
	}
	lines = append(lines, fmt.Sprintf("**Support Type:** %s", titleWord(supportType)))
	if supportType == "server" {
		if guildID, ok := meta["guild_id"].(string); ok && guildID != "" {
			lines = append(lines, "", "**Concerned Server:**", fmt.Sprintf("• ID: `%s`", guildID))
			if invite, ok := meta["invite_link"].(string); ok && invite != "" {
				lines = append(lines, fmt.Sprintf("• Invite: %s", invite))
			}
		}
	}
	return Blocks{Text(strings.Join(lines, "\n"))}
}

func bugReportInfo(meta map[string]any) Blocks {
	lines := []string{"### 🎫 Ticket Information\n"}
	code, _ := meta["error_code"].(string)
	if code == "" {
		lines = append(lines, "**Error Code:** No error code provided")
		return Blocks{Text(strings.Join(lines, "\n"))}
	}
	lines = append(lines, fmt.Sprintf("**Error Code:** `%s`\n", code))
	if info, ok := meta["error_info"].(map[string]any); ok {
		lines = append(lines, "**Error Context:**")
		if v, ok := info["command"].(string); ok && v != "" {
			lines = append(lines, fmt.Sprintf("• **Command:** `%s`", v))
		}
		if v, ok := info["user_id"].(string); ok && v != "" {
			lines = append(lines, fmt.Sprintf("• **User:** <@%s> (`%s`)", v, v))
		}
		if v, ok := info["guild_id"].(string); ok && v != "" {
			lines = append(lines, fmt.Sprintf("• **Server:** `%s`", v))
		}
		if v, ok := info["error_type"].(string); ok && v != "" {
			lines = append(lines, fmt.Sprintf("• **Type:** `%s`", v))
		}
		if ts, ok := asInt64(info["timestamp"]); ok && ts > 0 {
			lines = append(lines, fmt.Sprintf("• **When:** <t:%d:F>", ts))
		}
	}
	return Blocks{Text(strings.Join(lines, "\n"))}
}

func sanctionAppealInfo(meta map[string]any) Blocks {
	lines := []string{"### 🎫 Case Information\n"}
	info, ok := meta["case_info"].(map[string]any)
	if !ok {
		return Blocks{Text(strings.Join(lines, "\n"))}
	}
	if v, ok := info["case_id"].(string); ok {
		lines = append(lines, fmt.Sprintf("**Case ID:** `%s`", v))
	}
	if v, ok := info["sanction_type"].(string); ok && v != "" {
		lines = append(lines, fmt.Sprintf("**Sanction Type:** %s", titleWord(strings.ReplaceAll(v, "_", " "))))
	}
	entityType, _ := info["entity_type"].(string)
	entityID, _ := info["entity_id"].(string)
	switch entityType {
	case "user":
		lines = append(lines, fmt.Sprintf("**Sanctioned User:** <@%s> (`%s`)", entityID, entityID))
	case "guild":
		lines = append(lines, fmt.Sprintf("**Sanctioned Server:** `%s`", entityID))
	}
	if v, ok := info["reason"].(string); ok && v != "" {
		lines = append(lines, fmt.Sprintf("\n**Reason:**\n%s", truncate(v, 1024)))
	}
	return Blocks{Text(strings.Join(lines, "\n"))}
}

var legalTypeNames = map[string]string{
	"data_access":   "Data Access",
	"rectification": "Rectification",
	"deletion":      "Deletion / Right to be Forgotten",
	"objection":     "Objection",
}

func legalRequestInfo(meta map[string]any) Blocks {
	legalType, _ := meta["legal_type"].(string)
	name, ok := legalTypeNames[legalType]
	if !ok {
		name = titleWord(legalType)
	}
	return Blocks{Text(fmt.Sprintf(
		"**🎫 Ticket Information**\n\n**Legal Request Type:** %s", name,
	))}
}

// ArchiveRequest renders the archive confirmation prompt sent to the ticket
// opener.
func ArchiveRequest() Blocks {
	return Blocks{
		Text("**🗃️ Archive Request**\nThe team would like to archive this ticket. Do you agree?"),
		Separator(),
	}
}

// News renders an official announcement: content, separator, official
// footer referencing the given URL.
func News(content, footerURL string) Blocks {
	footer := fmt.Sprintf(
		"-# This is an official message issued by the Moddy team. "+
			"For more information or updates, please consult Moddy's official "+
			"communication channels. [Learn more](%s)", footerURL,
	)
	return Blocks{Text(content), Separator(), Text(footer)}
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
