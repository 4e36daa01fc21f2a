package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	discordplatform "github.com/moddy-app/moddysystems/internal/platform/discord"
	"github.com/moddy-app/moddysystems/internal/render"
)

// maxNewsButtons is the platform's per-row component limit.
const maxNewsButtons = 5

func newsCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "official-news",
		Description: "Publish an official announcement to the news channel",
	}
}

func (b *Bot) handleNewsCommand(ctx context.Context, i *discordgo.InteractionCreate) {
	if !b.requireElevated(ctx, i) {
		return
	}
	b.respondModal(i, &discordgo.InteractionResponseData{
		CustomID: "news:publish",
		Title:    "Official announcement",
		Components: []discordgo.MessageComponent{
			textInputRow("content", "Announcement", discordgo.TextInputParagraph, true, "What is new?"),
			textInputRow("links", "Links, [title](url) one per line", discordgo.TextInputParagraph, false, "[Changelog](https://moddy.app/changelog)"),
		},
	})
}

func (b *Bot) handleNewsModal(ctx context.Context, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	content := modalValue(data, "content")
	links := render.ParseLinks(modalValue(data, "links"))

	// The support link always leads, then the announcement's own links up
	// to the component limit.
	buttons := []discordgo.MessageComponent{
		discordgo.Button{Label: "Support", Style: discordgo.LinkButton, URL: b.cfg.Status.SupportURL},
	}
	for _, link := range links {
		if len(buttons) == maxNewsButtons {
			break
		}
		buttons = append(buttons, discordgo.Button{
			Label: link.Title,
			Style: discordgo.LinkButton,
			URL:   link.URL,
		})
	}

	_, err := b.session.ChannelMessageSendComplex(b.cfg.Status.NewsChannelID, &discordgo.MessageSend{
		Content:    discordplatform.RenderBlocks(render.News(content, b.cfg.Status.FooterURL)),
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}},
	})
	if err != nil {
		b.logger.Error("news publish failed", zap.Error(err))
		b.respondText(i, "Publishing failed. Please try again later.", true)
		return
	}
	b.respondText(i, "Announcement published.", true)
}
