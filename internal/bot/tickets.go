package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/moddy-app/moddysystems/internal/domain"
	"github.com/moddy-app/moddysystems/internal/flow"
	"github.com/moddy-app/moddysystems/internal/platform"
	discordplatform "github.com/moddy-app/moddysystems/internal/platform/discord"
	"github.com/moddy-app/moddysystems/internal/render"
)

// onMessage serves the prefix commands that predate slash commands:
// "!tickets" posts the support panel and "!archiverequest" asks the ticket
// opener to close their thread.
func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	switch strings.TrimSpace(m.Content) {
	case "!tickets":
		b.postSupportPanel(ctx, m)
	case "!archiverequest":
		b.postArchiveRequest(ctx, m)
	}
}

func (b *Bot) postSupportPanel(ctx context.Context, m *discordgo.MessageCreate) {
	if b.cfg.Tickets.SupportChannelID != "" && m.ChannelID != b.cfg.Tickets.SupportChannelID {
		return
	}
	staff := b.tickets.Staff(ctx, m.Author.ID)
	if staff == nil || !staff.Elevated() {
		return
	}

	rows := panelButtons()
	_, err := b.session.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content:    discordplatform.RenderBlocks(render.SupportPanel()),
		Components: rows,
	})
	if err != nil {
		b.logger.Error("support panel post failed", zap.Error(err))
		return
	}
	if err := b.session.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
		b.logger.Warn("panel command cleanup failed", zap.Error(err))
	}
}

// panelButtons lays the six categories out as two button rows.
func panelButtons() []discordgo.MessageComponent {
	categories := domain.Categories()
	var rows []discordgo.MessageComponent
	for start := 0; start < len(categories); start += 3 {
		end := start + 3
		if end > len(categories) {
			end = len(categories)
		}
		var buttons []discordgo.MessageComponent
		for _, category := range categories[start:end] {
			buttons = append(buttons, discordgo.Button{
				Label:    category.Label(),
				Style:    discordgo.SecondaryButton,
				CustomID: "panel:" + string(category),
				Emoji:    &discordgo.ComponentEmoji{Name: render.CategoryGlyph(category)},
			})
		}
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}
	return rows
}

func (b *Bot) postArchiveRequest(ctx context.Context, m *discordgo.MessageCreate) {
	ticket, err := b.tickets.Get(ctx, m.ChannelID)
	if err != nil {
		return
	}
	staff := b.tickets.Staff(ctx, m.Author.ID)
	var roles []string
	if staff != nil {
		roles = staff.Roles
	}
	if !b.tickets.CanManage(roles, ticket.Category) {
		return
	}

	_, err = b.session.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content: discordplatform.RenderBlocks(render.ArchiveRequest()),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Yes, archive it",
					Style:    discordgo.SuccessButton,
					CustomID: fmt.Sprintf("archivereq:yes:%s:%s", ticket.ThreadID, ticket.UserID),
				},
				discordgo.Button{
					Label:    "Not yet",
					Style:    discordgo.DangerButton,
					CustomID: fmt.Sprintf("archivereq:no:%s:%s", ticket.ThreadID, ticket.UserID),
				},
			}},
		},
	})
	if err != nil {
		b.logger.Error("archive request post failed", zap.Error(err))
	}
}

// handlePanelButton starts the category's intake flow.
func (b *Bot) handlePanelButton(ctx context.Context, i *discordgo.InteractionCreate, parts []string) {
	if len(parts) < 2 {
		return
	}
	category := domain.TicketCategory(parts[1])
	if !category.Valid() {
		b.respondText(i, "This control is no longer active.", true)
		return
	}

	switch category {
	case domain.CategorySupport:
		b.respondModal(i, supportModal())
	case domain.CategoryBugReport:
		b.respondModal(i, bugReportModal())
	case domain.CategoryLegalRequest:
		b.respondModal(i, legalRequestModal())
	case domain.CategorySanctionAppeal:
		b.respondModal(i, sanctionAppealModal())
	default:
		// payments_billing and other_request collect no metadata.
		b.openTicket(ctx, i, category, nil)
	}
}

func supportModal() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: "ticketflow:support",
		Title:    "Support request",
		Components: []discordgo.MessageComponent{
			textInputRow("type", "What is this about? (server / user / other)", discordgo.TextInputShort, true, "server"),
			textInputRow("invite", "Server invite link (server issues only)", discordgo.TextInputShort, false, "discord.gg/..."),
		},
	}
}

func bugReportModal() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: "ticketflow:bug_report",
		Title:    "Bug report",
		Components: []discordgo.MessageComponent{
			textInputRow("error_code", "Error code (8 characters, optional)", discordgo.TextInputShort, false, "A1B2C3D4"),
		},
	}
}

func legalRequestModal() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: "ticketflow:legal_request",
		Title:    "Legal request",
		Components: []discordgo.MessageComponent{
			textInputRow("legal_type", "Request type", discordgo.TextInputShort, true,
				"data_access / rectification / deletion / objection"),
		},
	}
}

func sanctionAppealModal() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: "ticketflow:sanction_appeal",
		Title:    "Sanction appeal",
		Components: []discordgo.MessageComponent{
			textInputRow("entity", "Who was sanctioned? (user / server)", discordgo.TextInputShort, true, "user"),
			textInputRow("server_id", "Server ID (server appeals only)", discordgo.TextInputShort, false, "123456789012345678"),
		},
	}
}

// finishSanctionAppealFlow looks up the sanctioned entity's open moderation
// cases. With open cases a picker is shown; without any the thread opens
// bare.
func (b *Bot) finishSanctionAppealFlow(ctx context.Context, i *discordgo.InteractionCreate, data discordgo.ModalSubmitInteractionData) {
	user := interactionUser(i)

	var cases []domain.ModerationCase
	switch strings.ToLower(modalValue(data, "entity")) {
	case "server":
		serverID := strings.TrimSpace(modalValue(data, "server_id"))
		if serverID == "" {
			b.respondText(i, "Server appeals need the server ID.", true)
			return
		}
		cases = b.tickets.OpenGuildCases(ctx, serverID)
	default:
		cases = b.tickets.OpenCases(ctx, user.ID)
	}
	if len(cases) == 0 {
		b.openTicket(ctx, i, domain.CategorySanctionAppeal, nil)
		return
	}

	state := &flow.State{
		UserID:   user.ID,
		Category: domain.CategorySanctionAppeal,
		Step:     "pick_case",
		Cases:    cases,
	}
	if err := b.flows.Put(ctx, state); err != nil {
		b.logger.Warn("flow state save failed", zap.String("user_id", user.ID), zap.Error(err))
		b.openTicket(ctx, i, domain.CategorySanctionAppeal, nil)
		return
	}

	options := make([]discordgo.SelectMenuOption, 0, len(cases))
	for idx, c := range cases {
		options = append(options, discordgo.SelectMenuOption{
			Label:       fmt.Sprintf("Case %s (%s)", c.CaseID, c.SanctionType),
			Description: truncateLabel(c.Reason, 90),
			Value:       strconv.Itoa(idx),
		})
	}
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Which sanction would you like to appeal?",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID: "flowcase:" + user.ID,
						Options:  options,
					},
				}},
			},
		},
	})
	if err != nil {
		b.logger.Warn("case picker respond failed", zap.Error(err))
	}
}

// handleCaseSelect resumes the sanction appeal flow from its stored state.
func (b *Bot) handleCaseSelect(ctx context.Context, i *discordgo.InteractionCreate, parts []string) {
	user := interactionUser(i)
	if len(parts) < 2 || parts[1] != user.ID {
		b.respondText(i, "This picker belongs to someone else.", true)
		return
	}

	state, err := b.flows.Get(ctx, user.ID, domain.CategorySanctionAppeal)
	if err != nil {
		b.respondText(i, "This flow has expired. Please start again from the panel.", true)
		return
	}
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return
	}
	idx, err := strconv.Atoi(values[0])
	if err != nil || idx < 0 || idx >= len(state.Cases) {
		b.respondText(i, "This flow has expired. Please start again from the panel.", true)
		return
	}
	picked := state.Cases[idx]
	b.flows.Delete(ctx, user.ID, domain.CategorySanctionAppeal)

	b.openTicket(ctx, i, domain.CategorySanctionAppeal, map[string]any{
		"case_info": map[string]any{
			"case_id":       picked.CaseID,
			"sanction_type": picked.SanctionType,
			"entity_type":   picked.EntityType,
			"entity_id":     picked.EntityID,
			"reason":        picked.Reason,
		},
	})
}

// handleTicketModal finishes the intake flows that collect metadata.
func (b *Bot) handleTicketModal(ctx context.Context, i *discordgo.InteractionCreate, parts []string) {
	if len(parts) < 2 {
		return
	}
	category := domain.TicketCategory(parts[1])
	data := i.ModalSubmitData()

	switch category {
	case domain.CategorySupport:
		b.finishSupportFlow(ctx, i, data)
	case domain.CategoryBugReport:
		b.finishBugReportFlow(ctx, i, data)
	case domain.CategorySanctionAppeal:
		b.finishSanctionAppealFlow(ctx, i, data)
	case domain.CategoryLegalRequest:
		b.openTicket(ctx, i, category, map[string]any{
			"legal_type": strings.ToLower(modalValue(data, "legal_type")),
		})
	default:
		b.respondText(i, "This form is no longer active.", true)
	}
}

func (b *Bot) finishSupportFlow(ctx context.Context, i *discordgo.InteractionCreate, data discordgo.ModalSubmitInteractionData) {
	supportType := strings.ToLower(modalValue(data, "type"))
	switch supportType {
	case "server", "user":
	default:
		supportType = "other"
	}
	meta := map[string]any{"type": supportType}

	if supportType == "server" {
		invite := modalValue(data, "invite")
		code, ok := platform.ParseInviteCode(invite)
		if !ok {
			b.respondText(i, "Server issues need a valid invite link.", true)
			return
		}
		guildID, err := b.client.LookupInvite(ctx, code)
		if err != nil {
			b.respondError(i, err)
			return
		}
		meta["guild_id"] = guildID
		meta["invite_link"] = invite
	}
	b.openTicket(ctx, i, domain.CategorySupport, meta)
}

func (b *Bot) finishBugReportFlow(ctx context.Context, i *discordgo.InteractionCreate, data discordgo.ModalSubmitInteractionData) {
	code := strings.ToUpper(modalValue(data, "error_code"))
	if code == "" {
		b.openTicket(ctx, i, domain.CategoryBugReport, nil)
		return
	}

	record, err := b.tickets.LookupError(ctx, code)
	if err != nil {
		b.respondError(i, err)
		return
	}
	b.openTicket(ctx, i, domain.CategoryBugReport, map[string]any{
		"error_code": code,
		"error_info": map[string]any{
			"command":    record.Command,
			"user_id":    record.UserID,
			"guild_id":   record.GuildID,
			"error_type": record.ErrorType,
			"timestamp":  record.Timestamp,
		},
	})
}

// openTicket creates the private thread, posts the control and context
// messages, and records the ticket. Tracking failures never undo the
// thread.
func (b *Bot) openTicket(ctx context.Context, i *discordgo.InteractionCreate, category domain.TicketCategory, metadata map[string]any) {
	user := interactionUser(i)
	name := fmt.Sprintf("%s┃%s-%s", render.CategoryGlyph(category), category.Label(), user.Username)

	threadID, err := b.client.CreatePrivateThread(ctx, b.cfg.Tickets.SupportChannelID, name)
	if err != nil {
		b.respondError(i, err)
		return
	}
	if err := b.client.AddThreadMember(ctx, threadID, user.ID); err != nil {
		b.logger.Warn("thread member add failed", zap.String("thread_id", threadID), zap.Error(err))
	}

	ticket := &domain.Ticket{
		ThreadID:  threadID,
		UserID:    user.ID,
		Category:  category,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}

	control := discordplatform.RenderBlocks(render.TicketControl(ticket))
	if roleID := b.categoryRoleID(category); roleID != "" {
		control = fmt.Sprintf("<@&%s>\n%s", roleID, control)
	}
	_, err = b.session.ChannelMessageSendComplex(threadID, &discordgo.MessageSend{
		Content:    control,
		Components: ticketButtons(threadID, false),
	})
	if err != nil {
		b.logger.Warn("ticket control post failed", zap.String("thread_id", threadID), zap.Error(err))
	}
	if info := render.TicketInfo(ticket); len(info) > 0 {
		if _, err := b.client.SendBlocks(ctx, threadID, info); err != nil {
			b.logger.Warn("ticket info post failed", zap.String("thread_id", threadID), zap.Error(err))
		}
	}

	b.tickets.Track(ctx, ticket)
	b.respondText(i, fmt.Sprintf("Your ticket has been created: <#%s>", threadID), true)
}

// categoryRoleID picks the role to ping in a fresh ticket thread.
func (b *Bot) categoryRoleID(category domain.TicketCategory) string {
	switch category {
	case domain.CategoryBugReport:
		return b.cfg.Tickets.RoleDev
	case domain.CategorySanctionAppeal:
		return b.cfg.Tickets.RoleModerator
	case domain.CategoryLegalRequest:
		return b.cfg.Tickets.RoleManager
	default:
		return b.cfg.Tickets.RoleSupportAgent
	}
}

func ticketButtons(threadID string, claimed bool) []discordgo.MessageComponent {
	claimLabel, claimID := "Claim", "ticket:claim:"+threadID
	if claimed {
		claimLabel, claimID = "Unclaim", "ticket:unclaim:"+threadID
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: claimLabel, Style: discordgo.PrimaryButton, CustomID: claimID},
			discordgo.Button{Label: "Archive", Style: discordgo.DangerButton, CustomID: "ticket:archive:" + threadID},
		}},
	}
}

// handleTicketButton serves the claim, unclaim, and archive controls on the
// ticket control message.
func (b *Bot) handleTicketButton(ctx context.Context, i *discordgo.InteractionCreate, parts []string) {
	if len(parts) < 3 {
		return
	}
	action, threadID := parts[1], parts[2]
	user := interactionUser(i)

	staff := b.tickets.Staff(ctx, user.ID)
	var roles []string
	if staff != nil {
		roles = staff.Roles
	}

	switch action {
	case "claim":
		if _, err := b.tickets.Claim(ctx, threadID, user.ID, roles); err != nil {
			b.respondError(i, err)
			return
		}
		b.updateTicketButtons(i, threadID, true)
		b.respondText(i, fmt.Sprintf("🤝 Ticket claimed by <@%s>.", user.ID), false)
	case "unclaim":
		if _, err := b.tickets.Unclaim(ctx, threadID, user.ID, roles); err != nil {
			b.respondError(i, err)
			return
		}
		b.updateTicketButtons(i, threadID, false)
		b.respondText(i, fmt.Sprintf("↩️ Ticket released by <@%s>.", user.ID), false)
	case "archive":
		if _, err := b.tickets.Archive(ctx, threadID, user.ID, roles); err != nil {
			b.respondError(i, err)
			return
		}
		b.respondText(i, "🗃️ This ticket is now archived.", false)
		if err := b.client.ArchiveThread(ctx, threadID, true); err != nil {
			b.logger.Warn("thread archive failed", zap.String("thread_id", threadID), zap.Error(err))
		}
	}
}

func (b *Bot) updateTicketButtons(i *discordgo.InteractionCreate, threadID string, claimed bool) {
	if i.Message == nil {
		return
	}
	components := ticketButtons(threadID, claimed)
	_, err := b.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         i.Message.ID,
		Channel:    i.Message.ChannelID,
		Components: &components,
	})
	if err != nil {
		b.logger.Warn("ticket button update failed", zap.Error(err))
	}
}

// handleArchiveRequestButton serves the opener-facing archive prompt.
// Only the opener named in the control ID may answer.
func (b *Bot) handleArchiveRequestButton(ctx context.Context, i *discordgo.InteractionCreate, parts []string) {
	if len(parts) < 4 {
		return
	}
	decision, threadID, openerID := parts[1], parts[2], parts[3]
	user := interactionUser(i)
	if user.ID != openerID {
		b.respondText(i, "Only the ticket opener can answer this.", true)
		return
	}

	if decision == "no" {
		b.respondText(i, "Understood, the ticket stays open.", false)
		if i.Message != nil {
			if err := b.session.ChannelMessageDelete(i.Message.ChannelID, i.Message.ID); err != nil {
				b.logger.Warn("archive prompt cleanup failed", zap.Error(err))
			}
		}
		return
	}

	if _, err := b.tickets.ArchiveByOpener(ctx, threadID, user.ID); err != nil {
		b.respondError(i, err)
		return
	}
	b.respondText(i, "🗃️ Thanks! This ticket is now archived.", false)
	if err := b.client.ArchiveThread(ctx, threadID, true); err != nil {
		b.logger.Warn("thread archive failed", zap.String("thread_id", threadID), zap.Error(err))
	}
}

func truncateLabel(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
