package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/chat-history-bot/internal/history"
)

// messagesPerPage is the largest page the Discord API returns
const messagesPerPage = 100

// discordAPI is the subset of *discordgo.Session used to read history
type discordAPI interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
}

// channelSource exposes a Discord text channel as a history.Channel
type channelSource struct {
	api       discordAPI
	guildID   string
	channelID string
	name      string
	botUserID string
}

func newChannelSource(api discordAPI, guildID, channelID, name, botUserID string) *channelSource {
	return &channelSource{
		api:       api,
		guildID:   guildID,
		channelID: channelID,
		name:      name,
		botUserID: botUserID,
	}
}

func (c *channelSource) Name() string {
	return c.name
}

// History pages backwards from the newest message until it passes opts.After.
// Ordering and the final limit are applied by history.Fetcher.
func (c *channelSource) History(ctx context.Context, opts history.HistoryOptions) ([]history.RawMessage, error) {
	var (
		messages []history.RawMessage
		beforeID string
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := c.api.ChannelMessages(c.channelID, messagesPerPage, beforeID, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, mapDiscordError(err)
		}
		if len(page) == 0 {
			break
		}

		reachedStart := false
		for _, msg := range page {
			if !opts.After.IsZero() && !msg.Timestamp.After(opts.After) {
				reachedStart = true
				continue
			}
			messages = append(messages, convertMessage(msg, c.guildID, c.name))
		}

		if reachedStart || len(page) < messagesPerPage {
			break
		}
		if opts.Limit > 0 && !opts.OldestFirst && len(messages) >= opts.Limit {
			break
		}

		beforeID = page[len(page)-1].ID
	}

	return messages, nil
}

func (c *channelSource) CanReadHistory(ctx context.Context) (bool, error) {
	perms, err := c.api.UserChannelPermissions(c.botUserID, c.channelID, discordgo.WithContext(ctx))
	if err != nil {
		if errors.Is(mapDiscordError(err), history.ErrPermissionDenied) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get channel permissions: %w", err)
	}

	return canReadHistory(perms), nil
}

// guildSource exposes a Discord guild as a history.Container
type guildSource struct {
	api       discordAPI
	guildID   string
	name      string
	botUserID string
}

func newGuildSource(api discordAPI, guildID, name, botUserID string) *guildSource {
	return &guildSource{
		api:       api,
		guildID:   guildID,
		name:      name,
		botUserID: botUserID,
	}
}

func (g *guildSource) Name() string {
	return g.name
}

// TextChannels lists the guild's text channels in API order
func (g *guildSource) TextChannels(ctx context.Context) ([]history.Channel, error) {
	channels, err := g.api.GuildChannels(g.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapDiscordError(err)
	}

	var text []history.Channel
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		text = append(text, newChannelSource(g.api, g.guildID, ch.ID, ch.Name, g.botUserID))
	}

	return text, nil
}

func canReadHistory(perms int64) bool {
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return perms&discordgo.PermissionViewChannel != 0 &&
		perms&discordgo.PermissionReadMessageHistory != 0
}

// mapDiscordError turns "forbidden" API responses into history.ErrPermissionDenied
func mapDiscordError(err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return err
	}

	forbidden := restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeMissingAccess, discordgo.ErrCodeMissingPermissions:
			forbidden = true
		}
	}

	if forbidden {
		return fmt.Errorf("%w: %v", history.ErrPermissionDenied, err)
	}
	return err
}

func convertMessage(msg *discordgo.Message, guildID, channelName string) history.RawMessage {
	raw := history.RawMessage{
		ID:          msg.ID,
		Type:        convertMessageType(msg.Type),
		Content:     msg.Content,
		Timestamp:   msg.Timestamp.UTC(),
		ChannelName: channelName,
		JumpURL:     jumpURL(guildID, msg.ChannelID, msg.ID),
	}

	if msg.Author != nil {
		raw.AuthorID = parseSnowflake(msg.Author.ID)
		raw.AuthorName = displayName(msg.Author, msg.Member)
		raw.AuthorAvatarURL = msg.Author.AvatarURL("")
		raw.IsBot = msg.Author.Bot
	}

	for _, attachment := range msg.Attachments {
		if attachment == nil {
			continue
		}
		raw.Attachments = append(raw.Attachments, history.Attachment{
			URL:         attachment.URL,
			ContentType: attachment.ContentType,
		})
	}

	return raw
}

// convertMessageType keeps plain messages and replies as user messages
func convertMessageType(t discordgo.MessageType) history.MessageType {
	switch t {
	case discordgo.MessageTypeDefault, discordgo.MessageTypeReply:
		return history.MessageTypeDefault
	default:
		return history.MessageTypeSystem
	}
}

// displayName prefers the guild nickname, then the global display name
func displayName(user *discordgo.User, member *discordgo.Member) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}

func parseSnowflake(id string) int64 {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func jumpURL(guildID, channelID, messageID string) string {
	if guildID == "" {
		guildID = "@me"
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}
