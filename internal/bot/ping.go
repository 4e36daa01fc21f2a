package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

func pingCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Show the gateway heartbeat latency",
	}
}

func (b *Bot) handlePing(ctx context.Context, i *discordgo.InteractionCreate) {
	latency := b.session.HeartbeatLatency()
	ms := latency.Milliseconds()

	var quality string
	switch {
	case ms < 100:
		quality = "Excellent"
	case ms < 200:
		quality = "Good"
	case ms < 300:
		quality = "Fair"
	default:
		quality = "Poor"
	}
	b.respondText(i, fmt.Sprintf("🏓 Pong! Heartbeat: `%dms` (%s)", ms, quality), true)
}
