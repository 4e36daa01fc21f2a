package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/moddy-app/moddysystems/internal/config"
	"github.com/moddy-app/moddysystems/internal/flow"
	"github.com/moddy-app/moddysystems/internal/platform"
	"github.com/moddy-app/moddysystems/internal/service"
	util "github.com/moddy-app/moddysystems/pkg/util"
)

const interactionTimeout = 15 * time.Second

// Bot binds the Discord gateway to the ticket and status services. Slash
// commands, message components, and modals all funnel through here.
type Bot struct {
	session *discordgo.Session
	client  platform.Client
	cfg     *config.Config
	tickets *service.TicketService
	status  *service.StatusService
	flows   *flow.Store
	logger  *zap.Logger
}

// Dependencies bundles everything the bot needs besides the session.
type Dependencies struct {
	Client  platform.Client
	Config  *config.Config
	Tickets *service.TicketService
	Status  *service.StatusService
	Flows   *flow.Store
	Logger  *zap.Logger
}

// New wires the event handlers onto an unopened gateway session; call
// Start to connect.
func New(session *discordgo.Session, deps Dependencies) *Bot {
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	b := &Bot{
		session: session,
		client:  deps.Client,
		cfg:     deps.Config,
		tickets: deps.Tickets,
		status:  deps.Status,
		flows:   deps.Flows,
		logger:  deps.Logger,
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	session.AddHandler(b.onMessage)
	return b
}

// Start opens the gateway connection and registers the slash commands.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	appID := b.session.State.User.ID
	if _, err := b.session.ApplicationCommandBulkOverwrite(appID, "", b.commands()); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	b.logger.Info("gateway connected", zap.String("bot_id", appID))
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() {
	if err := b.session.Close(); err != nil {
		b.logger.Warn("gateway close failed", zap.Error(err))
	}
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	presence := b.cfg.Discord.Presence
	var err error
	if presence != "" {
		err = s.UpdateGameStatus(0, presence)
	} else {
		err = s.UpdateWatchStatus(0, fmt.Sprintf("%d servers", len(r.Guilds)))
	}
	if err != nil {
		b.logger.Warn("presence update failed", zap.Error(err))
	}
	b.logger.Info("ready", zap.Int("guilds", len(r.Guilds)))
}

func (b *Bot) commands() []*discordgo.ApplicationCommand {
	cmds := []*discordgo.ApplicationCommand{
		pingCommand(),
		incidentCommand(),
		maintenanceCommand(),
		broadcastCommand(),
		newsCommand(),
	}
	return cmds
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(ctx, i)
	case discordgo.InteractionModalSubmit:
		b.handleModal(ctx, i)
	}
}

func (b *Bot) handleCommand(ctx context.Context, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	switch data.Name {
	case "ping":
		b.handlePing(ctx, i)
	case "incident":
		b.handleIncident(ctx, i, data)
	case "maintenance":
		b.handleMaintenance(ctx, i, data)
	case "broadcast":
		b.handleBroadcast(ctx, i, data)
	case "official-news":
		b.handleNewsCommand(ctx, i)
	default:
		b.respondText(i, "Unknown command.", true)
	}
}

func (b *Bot) handleComponent(ctx context.Context, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	parts := strings.Split(customID, ":")
	switch parts[0] {
	case "panel":
		b.handlePanelButton(ctx, i, parts)
	case "ticket":
		b.handleTicketButton(ctx, i, parts)
	case "archivereq":
		b.handleArchiveRequestButton(ctx, i, parts)
	case "flowcase":
		b.handleCaseSelect(ctx, i, parts)
	default:
		b.respondText(i, "This control is no longer active.", true)
	}
}

func (b *Bot) handleModal(ctx context.Context, i *discordgo.InteractionCreate) {
	customID := i.ModalSubmitData().CustomID
	parts := strings.Split(customID, ":")
	switch parts[0] {
	case "incident":
		b.handleIncidentModal(ctx, i, parts)
	case "maintenance":
		b.handleMaintenanceModal(ctx, i, parts)
	case "ticketflow":
		b.handleTicketModal(ctx, i, parts)
	case "broadcast":
		b.handleBroadcastModal(ctx, i, parts)
	case "news":
		b.handleNewsModal(ctx, i)
	default:
		b.respondText(i, "This form is no longer active.", true)
	}
}

// interactionUser returns the acting user for guild or DM interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

// requireElevated gates operator commands on the platform staff database.
func (b *Bot) requireElevated(ctx context.Context, i *discordgo.InteractionCreate) bool {
	user := interactionUser(i)
	staff := b.tickets.Staff(ctx, user.ID)
	if staff == nil || !staff.Elevated() {
		b.respondText(i, "You are not allowed to use this command.", true)
		return false
	}
	return true
}

func (b *Bot) respondText(i *discordgo.InteractionCreate, content string, ephemeral bool) {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: flags},
	})
	if err != nil {
		b.logger.Warn("interaction respond failed", zap.Error(err))
	}
}

// respondError shows domain errors to the user and hides everything else
// behind a generic message.
func (b *Bot) respondError(i *discordgo.InteractionCreate, err error) {
	domainErr := util.ToDomainError(err)
	if domainErr.UserFacing() {
		b.respondText(i, domainErr.Message, true)
		return
	}
	b.logger.Error("interaction failed", zap.String("code", domainErr.Code), zap.Error(err))
	b.respondText(i, "Something went wrong. Please try again later.", true)
}

func (b *Bot) respondModal(i *discordgo.InteractionCreate, modal *discordgo.InteractionResponseData) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: modal,
	})
	if err != nil {
		b.logger.Warn("modal respond failed", zap.Error(err))
	}
}

// modalValue pulls a text input value out of a modal submission by its
// component custom ID.
func modalValue(data discordgo.ModalSubmitInteractionData, id string) string {
	for _, row := range data.Components {
		actionRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range actionRow.Components {
			input, ok := comp.(*discordgo.TextInput)
			if !ok {
				continue
			}
			if input.CustomID == id {
				return strings.TrimSpace(input.Value)
			}
		}
	}
	return ""
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func stringOption(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := m[name]; ok {
		return strings.TrimSpace(opt.StringValue())
	}
	return ""
}

func intOption(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) int64 {
	if opt, ok := m[name]; ok {
		return opt.IntValue()
	}
	return 0
}
