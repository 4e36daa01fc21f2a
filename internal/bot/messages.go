package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/moddy-app/moddysystems/internal/render"
	util "github.com/moddy-app/moddysystems/pkg/util"
)

func broadcastCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "broadcast",
		Description: "Send, edit, or delete messages as the bot",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "send",
				Description: "Send a message to a channel",
				Options:     []*discordgo.ApplicationCommandOption{broadcastChannelOption()},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "edit",
				Description: "Edit a message previously sent by the bot",
				Options: []*discordgo.ApplicationCommandOption{
					broadcastChannelOption(),
					broadcastMessageIDOption(),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "delete",
				Description: "Delete a message previously sent by the bot",
				Options: []*discordgo.ApplicationCommandOption{
					broadcastChannelOption(),
					broadcastMessageIDOption(),
				},
			},
		},
	}
}

func broadcastChannelOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionChannel,
		Name:        "channel",
		Description: "Target channel",
		Required:    true,
	}
}

func broadcastMessageIDOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "message_id",
		Description: "ID of the bot's message",
		Required:    true,
	}
}

func (b *Bot) handleBroadcast(ctx context.Context, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !b.requireElevated(ctx, i) {
		return
	}
	sub := data.Options[0]
	opts := optionMap(sub.Options)

	var channelID string
	if opt, ok := opts["channel"]; ok {
		channelID = opt.ChannelValue(nil).ID
	}

	switch sub.Name {
	case "send":
		ok, err := b.client.CanSend(ctx, channelID)
		if err != nil || !ok {
			b.respondText(i, "I cannot send messages in that channel.", true)
			return
		}
		b.respondModal(i, broadcastModal("broadcast:send:"+channelID, "Send message", ""))
	case "edit":
		messageID := stringOption(opts, "message_id")
		msg, err := b.ownMessage(ctx, i, channelID, messageID)
		if err != nil {
			return
		}
		b.respondModal(i, broadcastModal(
			fmt.Sprintf("broadcast:edit:%s:%s", channelID, messageID),
			"Edit message", msg))
	case "delete":
		messageID := stringOption(opts, "message_id")
		if _, err := b.ownMessage(ctx, i, channelID, messageID); err != nil {
			return
		}
		if err := b.client.DeleteMessage(ctx, channelID, messageID); err != nil {
			b.respondError(i, err)
			return
		}
		b.respondText(i, "Message deleted.", true)
	}
}

// ownMessage fetches the target and verifies the bot authored it. On
// failure it responds to the interaction and returns an error.
func (b *Bot) ownMessage(ctx context.Context, i *discordgo.InteractionCreate, channelID, messageID string) (string, error) {
	msg, err := b.client.FetchMessage(ctx, channelID, messageID)
	if err != nil {
		b.respondError(i, err)
		return "", err
	}
	if msg.AuthorID != b.client.BotUserID() {
		err := util.NewPermissionDenied("that message was not sent by the bot")
		b.respondError(i, err)
		return "", err
	}
	return msg.Content, nil
}

// broadcastModal collects the message body. Lines holding only "---"
// separate visual sections.
func broadcastModal(customID, title, prefill string) *discordgo.InteractionResponseData {
	input := discordgo.TextInput{
		CustomID:    "content",
		Label:       "Content (--- on its own line splits sections)",
		Style:       discordgo.TextInputParagraph,
		Required:    true,
		MaxLength:   4000,
		Value:       prefill,
		Placeholder: "Hello everyone!",
	}
	return &discordgo.InteractionResponseData{
		CustomID:   customID,
		Title:      title,
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: []discordgo.MessageComponent{input}}},
	}
}

func (b *Bot) handleBroadcastModal(ctx context.Context, i *discordgo.InteractionCreate, parts []string) {
	if len(parts) < 3 {
		b.respondText(i, "This form is no longer active.", true)
		return
	}
	content := modalValue(i.ModalSubmitData(), "content")
	blocks := render.Sections(content)

	switch parts[1] {
	case "send":
		channelID := parts[2]
		messageID, err := b.client.SendBlocks(ctx, channelID, blocks)
		if err != nil {
			b.respondError(i, err)
			return
		}
		b.respondText(i, fmt.Sprintf("Message sent (`%s`).", messageID), true)
	case "edit":
		if len(parts) < 4 {
			b.respondText(i, "This form is no longer active.", true)
			return
		}
		channelID, messageID := parts[2], parts[3]
		if err := b.client.EditBlocks(ctx, channelID, messageID, blocks); err != nil {
			b.respondError(i, err)
			return
		}
		b.respondText(i, "Message updated.", true)
	default:
		b.respondText(i, "This form is no longer active.", true)
	}
}
