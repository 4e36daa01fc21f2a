package bot

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/moddy-app/moddysystems/internal/domain"
	"github.com/moddy-app/moddysystems/internal/service"
)

func incidentCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "incident",
		Description: "Manage incident reports in the status channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "create",
				Description: "Post a new incident report",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "update",
				Description: "Append a timeline update to an incident",
				Options: []*discordgo.ApplicationCommandOption{
					reportIDOption(),
					{Type: discordgo.ApplicationCommandOptionString, Name: "description", Description: "What changed", Required: true},
					incidentStatusOption(false),
					{Type: discordgo.ApplicationCommandOptionString, Name: "eta", Description: "New ETA"},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "timestamp", Description: "Unix timestamp of the update"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "delete_update",
				Description: "Remove a timeline update by number",
				Options: []*discordgo.ApplicationCommandOption{
					reportIDOption(),
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "number", Description: "Update number", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "set_status",
				Description: "Change an incident's status without an update",
				Options: []*discordgo.ApplicationCommandOption{
					reportIDOption(),
					incidentStatusOption(true),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "resolve",
				Description: "Resolve an incident",
				Options: []*discordgo.ApplicationCommandOption{
					reportIDOption(),
					{Type: discordgo.ApplicationCommandOptionString, Name: "resolution", Description: "Resolution text"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List incidents",
				Options:     []*discordgo.ApplicationCommandOption{listFilterOption()},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "sync",
				Description: "Reconcile records with the status channel",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "export",
				Description: "Export all status records as JSON",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "stats",
				Description: "Show status record statistics",
			},
		},
	}
}

func maintenanceCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "maintenance",
		Description: "Manage maintenance reports in the status channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "schedule",
				Description: "Post a scheduled maintenance report",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "update",
				Description: "Append a timeline update to a maintenance",
				Options: []*discordgo.ApplicationCommandOption{
					reportIDOption(),
					{Type: discordgo.ApplicationCommandOptionString, Name: "description", Description: "What changed", Required: true},
					maintenanceStatusOption(false),
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "timestamp", Description: "Unix timestamp of the update"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "set_status",
				Description: "Change a maintenance's status without an update",
				Options: []*discordgo.ApplicationCommandOption{
					reportIDOption(),
					maintenanceStatusOption(true),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "complete",
				Description: "Mark a maintenance as completed",
				Options: []*discordgo.ApplicationCommandOption{
					reportIDOption(),
					{Type: discordgo.ApplicationCommandOptionString, Name: "notes", Description: "Completion notes"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List maintenances",
				Options:     []*discordgo.ApplicationCommandOption{listFilterOption()},
			},
		},
	}
}

func reportIDOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "message_id",
		Description: "ID of the status message",
		Required:    true,
	}
}

func listFilterOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "filter",
		Description: "Which records to list",
		Choices: []*discordgo.ApplicationCommandOptionChoice{
			{Name: "Active", Value: string(service.FilterActive)},
			{Name: "Resolved", Value: string(service.FilterResolved)},
		},
	}
}

func incidentStatusOption(required bool) *discordgo.ApplicationCommandOption {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(domain.IncidentStatuses()))
	for _, status := range domain.IncidentStatuses() {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  string(status),
			Value: string(status),
		})
	}
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "status",
		Description: "Incident status",
		Required:    required,
		Choices:     choices,
	}
}

func maintenanceStatusOption(required bool) *discordgo.ApplicationCommandOption {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(domain.MaintenanceStatuses()))
	for _, status := range domain.MaintenanceStatuses() {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  string(status),
			Value: string(status),
		})
	}
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "status",
		Description: "Maintenance status",
		Required:    required,
		Choices:     choices,
	}
}

func (b *Bot) handleIncident(ctx context.Context, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !b.requireElevated(ctx, i) {
		return
	}
	sub := data.Options[0]
	opts := optionMap(sub.Options)
	actor := interactionUser(i).ID

	switch sub.Name {
	case "create":
		b.respondModal(i, incidentCreateModal())
	case "update":
		report, err := b.status.AddUpdate(ctx, actor,
			stringOption(opts, "message_id"),
			stringOption(opts, "description"),
			domain.ReportStatus(stringOption(opts, "status")),
			stringOption(opts, "eta"),
			intOption(opts, "timestamp"))
		if err != nil {
			b.respondError(i, err)
			return
		}
		b.respondText(i, fmt.Sprintf("Update #%d added to `%s`.", len(report.Updates), report.StatusID), true)
	case "delete_update":
		report, err := b.status.DeleteUpdate(ctx, actor,
			stringOption(opts, "message_id"), int(intOption(opts, "number")))
		if err != nil {
			b.respondError(i, err)
			return
		}
		b.respondText(i, fmt.Sprintf("Update removed from `%s`, %d remaining.", report.StatusID, len(report.Updates)), true)
	case "set_status":
		report, err := b.status.SetStatus(ctx, actor,
			stringOption(opts, "message_id"),
			domain.ReportStatus(stringOption(opts, "status")))
		if err != nil {
			b.respondError(i, err)
			return
		}
		b.respondText(i, fmt.Sprintf("`%s` is now **%s**.", report.StatusID, report.Status), true)
	case "resolve":
		report, err := b.status.Resolve(ctx, actor,
			stringOption(opts, "message_id"), stringOption(opts, "resolution"))
		if err != nil {
			b.respondError(i, err)
			return
		}
		b.respondText(i, fmt.Sprintf("`%s` resolved after %s.", report.StatusID, report.TotalDuration), true)
	case "list":
		b.respondReportList(ctx, i, domain.KindIncident, listFilter(opts))
	case "sync":
		if err := b.status.Reconcile(ctx); err != nil {
			b.respondError(i, err)
			return
		}
		b.respondText(i, "Status channel reconciled.", true)
	case "export":
		b.respondExport(ctx, i)
	case "stats":
		b.respondStats(ctx, i)
	default:
		b.respondText(i, "Unknown subcommand.", true)
	}
}

func (b *Bot) handleMaintenance(ctx context.Context, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !b.requireElevated(ctx, i) {
		return
	}
	sub := data.Options[0]
	opts := optionMap(sub.Options)
	actor := interactionUser(i).ID

	switch sub.Name {
	case "schedule":
		b.respondModal(i, maintenanceScheduleModal())
	case "update":
		report, err := b.status.AddUpdate(ctx, actor,
			stringOption(opts, "message_id"),
			stringOption(opts, "description"),
			domain.ReportStatus(stringOption(opts, "status")),
			"",
			intOption(opts, "timestamp"))
		if err != nil {
			b.respondError(i, err)
			return
		}
		b.respondText(i, fmt.Sprintf("Update #%d added to `%s`.", len(report.Updates), report.StatusID), true)
	case "set_status":
		report, err := b.status.SetStatus(ctx, actor,
			stringOption(opts, "message_id"),
			domain.ReportStatus(stringOption(opts, "status")))
		if err != nil {
			b.respondError(i, err)
			return
		}
		b.respondText(i, fmt.Sprintf("`%s` is now **%s**.", report.StatusID, report.Status), true)
	case "complete":
		report, err := b.status.Complete(ctx, actor,
			stringOption(opts, "message_id"), stringOption(opts, "notes"))
		if err != nil {
			b.respondError(i, err)
			return
		}
		b.respondText(i, fmt.Sprintf("`%s` marked as completed.", report.StatusID), true)
	case "list":
		b.respondReportList(ctx, i, domain.KindMaintenance, listFilter(opts))
	default:
		b.respondText(i, "Unknown subcommand.", true)
	}
}

func listFilter(opts map[string]*discordgo.ApplicationCommandInteractionDataOption) service.ListFilter {
	if stringOption(opts, "filter") == string(service.FilterResolved) {
		return service.FilterResolved
	}
	return service.FilterActive
}

func (b *Bot) respondReportList(ctx context.Context, i *discordgo.InteractionCreate, kind domain.ReportKind, filter service.ListFilter) {
	reports, err := b.status.List(ctx, kind, filter)
	if err != nil {
		b.respondError(i, err)
		return
	}
	if len(reports) == 0 {
		b.respondText(i, fmt.Sprintf("No %s %ss.", filter, kind), true)
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s %ss (%d):**\n", strings.Title(string(filter)), kind, len(reports))
	for _, report := range reports {
		fmt.Fprintf(&sb, "%s `%s` %s (%s), <t:%d:R>\n",
			reportGlyph(report), report.StatusID, report.Title, report.Status, report.DefiningTime())
	}
	b.respondText(i, sb.String(), true)
}

func reportGlyph(r *domain.StatusReport) string {
	switch r.Status.Color() {
	case domain.ColorGreen:
		return "🟢"
	case domain.ColorAmber:
		return "🟠"
	default:
		return "🔴"
	}
}

func (b *Bot) respondExport(ctx context.Context, i *discordgo.InteractionCreate) {
	payload, err := b.status.Export(ctx)
	if err != nil {
		b.respondError(i, err)
		return
	}
	err = b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Full status export attached.",
			Flags:   discordgo.MessageFlagsEphemeral,
			Files: []*discordgo.File{{
				Name:        "incidents_export.json",
				ContentType: "application/json",
				Reader:      bytes.NewReader(payload),
			}},
		},
	})
	if err != nil {
		b.logger.Warn("export respond failed", zap.Error(err))
	}
}

func (b *Bot) respondStats(ctx context.Context, i *discordgo.InteractionCreate) {
	stats, err := b.status.ComputeStats(ctx)
	if err != nil {
		b.respondError(i, err)
		return
	}
	var sb strings.Builder
	sb.WriteString("**Status statistics**\n")
	fmt.Fprintf(&sb, "Incidents: %d (%d active, %d resolved)\n",
		stats.Incidents, stats.ActiveIncidents, stats.ResolvedIncidents)
	fmt.Fprintf(&sb, "Maintenances: %d\n", stats.Maintenances)
	if stats.AvgResolutionDuration != "" {
		fmt.Fprintf(&sb, "Average resolution time: %s\n", stats.AvgResolutionDuration)
	}
	if len(stats.BySeverity) > 0 {
		sb.WriteString("By severity:")
		for _, sev := range []domain.Severity{domain.SeverityCritical, domain.SeverityMajor, domain.SeverityMinor, domain.SeverityLow} {
			if n := stats.BySeverity[sev]; n > 0 {
				fmt.Fprintf(&sb, " %s=%d", sev, n)
			}
		}
		sb.WriteString("\n")
	}
	b.respondText(i, sb.String(), true)
}

func incidentCreateModal() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: "incident:create",
		Title:    "New incident",
		Components: []discordgo.MessageComponent{
			textInputRow("title", "Title", discordgo.TextInputShort, true, "API Down"),
			textInputRow("issue", "Issue", discordgo.TextInputParagraph, true, "What is broken"),
			textInputRow("services", "Affected services", discordgo.TextInputShort, true, "API, Dashboard"),
			textInputRow("severity", "Severity (Critical/Major/Minor/Low)", discordgo.TextInputShort, false, "Major"),
			textInputRow("mentions", "Roles to ping", discordgo.TextInputShort, false, "<@&123> <@&456>"),
		},
	}
}

func maintenanceScheduleModal() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: "maintenance:schedule",
		Title:    "Schedule maintenance",
		Components: []discordgo.MessageComponent{
			textInputRow("title", "Title", discordgo.TextInputShort, true, "Database upgrade"),
			textInputRow("description", "Description", discordgo.TextInputParagraph, true, "What happens and why"),
			textInputRow("services", "Affected services", discordgo.TextInputShort, true, "API"),
			textInputRow("scheduled_time", "Start (unix timestamp)", discordgo.TextInputShort, true, "1700000000"),
			textInputRow("duration", "Expected duration", discordgo.TextInputShort, false, "2 hours"),
		},
	}
}

func textInputRow(id, label string, style discordgo.TextInputStyle, required bool, placeholder string) discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    id,
				Label:       label,
				Style:       style,
				Required:    required,
				Placeholder: placeholder,
			},
		},
	}
}

func (b *Bot) handleIncidentModal(ctx context.Context, i *discordgo.InteractionCreate, parts []string) {
	if len(parts) < 2 || parts[1] != "create" {
		b.respondText(i, "This form is no longer active.", true)
		return
	}
	data := i.ModalSubmitData()
	severity := domain.Severity(strings.Title(strings.ToLower(modalValue(data, "severity"))))
	report, err := b.status.CreateIncident(ctx, interactionUser(i).ID, service.IncidentInput{
		Title:    modalValue(data, "title"),
		Issue:    modalValue(data, "issue"),
		Services: modalValue(data, "services"),
		Severity: severity,
		Mentions: strings.Fields(modalValue(data, "mentions")),
	})
	if err != nil {
		b.respondError(i, err)
		return
	}
	b.respondText(i, fmt.Sprintf("Incident `%s` posted (message `%s`).", report.StatusID, report.ID), true)
}

func (b *Bot) handleMaintenanceModal(ctx context.Context, i *discordgo.InteractionCreate, parts []string) {
	if len(parts) < 2 || parts[1] != "schedule" {
		b.respondText(i, "This form is no longer active.", true)
		return
	}
	data := i.ModalSubmitData()
	scheduled, err := strconv.ParseInt(modalValue(data, "scheduled_time"), 10, 64)
	if err != nil {
		b.respondText(i, "Scheduled time must be a unix timestamp.", true)
		return
	}
	report, err := b.status.ScheduleMaintenance(ctx, interactionUser(i).ID, service.MaintenanceInput{
		Title:         modalValue(data, "title"),
		Description:   modalValue(data, "description"),
		Services:      modalValue(data, "services"),
		ScheduledTime: scheduled,
		Duration:      modalValue(data, "duration"),
	})
	if err != nil {
		b.respondError(i, err)
		return
	}
	b.respondText(i, fmt.Sprintf("Maintenance `%s` scheduled (message `%s`).", report.StatusID, report.ID), true)
}
