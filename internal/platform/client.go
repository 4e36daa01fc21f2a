// Package platform defines the chat-platform boundary. Services depend on
// these contracts, never on the SDK behind them.
package platform

import (
	"context"
	"regexp"
	"strings"

	"github.com/moddy-app/moddysystems/internal/render"
)

// Message is the platform-neutral view of a channel message.
type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
	Content   string
	Pinned    bool
}

// Messenger sends, edits and deletes displayed messages.
type Messenger interface {
	SendBlocks(ctx context.Context, channelID string, blocks render.Blocks) (messageID string, err error)
	EditBlocks(ctx context.Context, channelID, messageID string, blocks render.Blocks) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)
	CanSend(ctx context.Context, channelID string) (bool, error)
	BotUserID() string
}

// Pinner manages pin state and channel history, the proxy for "this report
// is still active".
type Pinner interface {
	PinMessage(ctx context.Context, channelID, messageID string) error
	UnpinMessage(ctx context.Context, channelID, messageID string) error
	PinnedMessages(ctx context.Context, channelID string) ([]Message, error)
	RecentMessages(ctx context.Context, channelID string, limit int) ([]Message, error)
}

// Threader creates and manages private support threads.
type Threader interface {
	CreatePrivateThread(ctx context.Context, channelID, name string) (threadID string, err error)
	AddThreadMember(ctx context.Context, threadID, userID string) error
	ArchiveThread(ctx context.Context, threadID string, lock bool) error
}

// InviteResolver resolves an invite code to the server it belongs to.
type InviteResolver interface {
	LookupInvite(ctx context.Context, code string) (guildID string, err error)
}

// Client is the full platform surface the bot consumes.
type Client interface {
	Messenger
	Pinner
	Threader
	InviteResolver
}

var invitePatterns = []*regexp.Regexp{
	regexp.MustCompile(`discord\.gg/([a-zA-Z0-9-]+)`),
	regexp.MustCompile(`discord\.com/invite/([a-zA-Z0-9-]+)`),
	regexp.MustCompile(`discordapp\.com/invite/([a-zA-Z0-9-]+)`),
}

var bareCodePattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// ParseInviteCode extracts the invite code from an invite link, or accepts a
// bare code. Returns false for anything that cannot be an invite.
func ParseInviteCode(input string) (string, bool) {
	input = strings.TrimSpace(input)
	for _, pattern := range invitePatterns {
		if m := pattern.FindStringSubmatch(input); m != nil {
			return m[1], true
		}
	}
	if bareCodePattern.MatchString(input) {
		return input, true
	}
	return "", false
}
