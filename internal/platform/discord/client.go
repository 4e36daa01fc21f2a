// Package discord implements the platform boundary over the Discord REST
// API via discordgo.
package discord

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/moddy-app/moddysystems/internal/platform"
	"github.com/moddy-app/moddysystems/internal/render"
	util "github.com/moddy-app/moddysystems/pkg/util"
)

// Ticket threads auto-archive after seven days of inactivity.
const threadAutoArchiveMinutes = 10080

// Client wraps a discordgo session behind the platform contracts.
type Client struct {
	session *discordgo.Session
}

// NewClient builds a client over an opened session.
func NewClient(session *discordgo.Session) *Client {
	return &Client{session: session}
}

var _ platform.Client = (*Client)(nil)

// RenderBlocks flattens a display payload into message content. Discord has
// no separator primitive in plain content, so separators become paragraph
// breaks.
func RenderBlocks(blocks render.Blocks) string {
	parts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if block.Kind == render.BlockText && strings.TrimSpace(block.Text) != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (c *Client) SendBlocks(ctx context.Context, channelID string, blocks render.Blocks) (string, error) {
	msg, err := c.session.ChannelMessageSend(channelID, RenderBlocks(blocks), discordgo.WithContext(ctx))
	if err != nil {
		return "", util.NewPlatformFailure("send", err)
	}
	return msg.ID, nil
}

func (c *Client) EditBlocks(ctx context.Context, channelID, messageID string, blocks render.Blocks) error {
	if _, err := c.session.ChannelMessageEdit(channelID, messageID, RenderBlocks(blocks), discordgo.WithContext(ctx)); err != nil {
		return util.NewPlatformFailure("edit", err)
	}
	return nil
}

func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := c.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return util.NewPlatformFailure("delete", err)
	}
	return nil
}

func (c *Client) FetchMessage(ctx context.Context, channelID, messageID string) (*platform.Message, error) {
	msg, err := c.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		var restErr *discordgo.RESTError
		if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == 404 {
			return nil, util.NewNotFound("message", map[string]any{"id": messageID})
		}
		return nil, util.NewPlatformFailure("fetch message", err)
	}
	return fromDiscordMessage(msg), nil
}

func (c *Client) CanSend(ctx context.Context, channelID string) (bool, error) {
	perms, err := c.session.UserChannelPermissions(c.BotUserID(), channelID)
	if err != nil {
		return false, util.NewPlatformFailure("permission check", err)
	}
	return perms&discordgo.PermissionSendMessages != 0, nil
}

// BotUserID returns the bot's own user id.
func (c *Client) BotUserID() string {
	if c.session.State != nil && c.session.State.User != nil {
		return c.session.State.User.ID
	}
	return ""
}

func (c *Client) PinMessage(ctx context.Context, channelID, messageID string) error {
	if err := c.session.ChannelMessagePin(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return util.NewPlatformFailure("pin", err)
	}
	return nil
}

func (c *Client) UnpinMessage(ctx context.Context, channelID, messageID string) error {
	if err := c.session.ChannelMessageUnpin(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return util.NewPlatformFailure("unpin", err)
	}
	return nil
}

func (c *Client) PinnedMessages(ctx context.Context, channelID string) ([]platform.Message, error) {
	msgs, err := c.session.ChannelMessagesPinned(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, util.NewPlatformFailure("list pins", err)
	}
	result := make([]platform.Message, 0, len(msgs))
	for _, msg := range msgs {
		m := fromDiscordMessage(msg)
		m.Pinned = true
		result = append(result, *m)
	}
	return result, nil
}

func (c *Client) RecentMessages(ctx context.Context, channelID string, limit int) ([]platform.Message, error) {
	msgs, err := c.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, util.NewPlatformFailure("fetch history", err)
	}
	result := make([]platform.Message, 0, len(msgs))
	for _, msg := range msgs {
		result = append(result, *fromDiscordMessage(msg))
	}
	return result, nil
}

func (c *Client) CreatePrivateThread(ctx context.Context, channelID, name string) (string, error) {
	thread, err := c.session.ThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name:                name,
		Type:                discordgo.ChannelTypeGuildPrivateThread,
		AutoArchiveDuration: threadAutoArchiveMinutes,
		Invitable:           false,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", util.NewPlatformFailure("create thread", err)
	}
	return thread.ID, nil
}

func (c *Client) AddThreadMember(ctx context.Context, threadID, userID string) error {
	if err := c.session.ThreadMemberAdd(threadID, userID, discordgo.WithContext(ctx)); err != nil {
		return util.NewPlatformFailure("add thread member", err)
	}
	return nil
}

func (c *Client) ArchiveThread(ctx context.Context, threadID string, lock bool) error {
	archived := true
	edit := &discordgo.ChannelEdit{Archived: &archived}
	if lock {
		locked := true
		edit.Locked = &locked
	}
	if _, err := c.session.ChannelEditComplex(threadID, edit, discordgo.WithContext(ctx)); err != nil {
		return util.NewPlatformFailure("archive thread", err)
	}
	return nil
}

func (c *Client) LookupInvite(ctx context.Context, code string) (string, error) {
	invite, err := c.session.Invite(code, discordgo.WithContext(ctx))
	if err != nil {
		return "", util.NewNotFound("invite", map[string]any{"code": code})
	}
	if invite.Guild == nil || invite.Guild.ID == "" {
		return "", util.NewNotFound("invite", map[string]any{"code": code})
	}
	return invite.Guild.ID, nil
}

func fromDiscordMessage(msg *discordgo.Message) *platform.Message {
	out := &platform.Message{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		Content:   msg.Content,
		Pinned:    msg.Pinned,
	}
	if msg.Author != nil {
		out.AuthorID = msg.Author.ID
	}
	return out
}
