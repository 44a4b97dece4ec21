package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/chat-history-bot/internal/pipeline"
)

// handleInteraction processes an incoming slash command
func (b *Bot) handleInteraction(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()

	// Wrap in recover middleware
	b.recoverMiddleware(data.Name, func() {
		b.handleCommand(ctx, s, i, data)
	})
}

// handleCommand dispatches a slash command by name
func (b *Bot) handleCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	b.logger.Info().
		Str("command", data.Name).
		Str("user_id", interactionUserID(i)).
		Str("channel_id", i.ChannelID).
		Str("guild_id", i.GuildID).
		Msg("Received command")

	if data.Name == cmdListenToHank {
		b.respondText(s, i, "no")
		b.metrics.CommandHandled(data.Name, outcomeLabel(nil))
		return
	}

	if err := b.deferResponse(s, i); err != nil {
		b.logger.Error().Err(err).Str("command", data.Name).Msg("Failed to acknowledge command")
		b.metrics.CommandHandled(data.Name, outcomeLabel(err))
		return
	}

	var err error
	switch data.Name {
	case cmdMessageCount:
		err = b.handleMessageCount(ctx, s, i, data)
	case cmdDailyCount:
		err = b.handleDailyCount(ctx, s, i)
	case cmdGlobalDailyCount:
		err = b.handleGlobalDailyCount(ctx, s, i)
	case cmdSummarize:
		err = b.handleSummarize(ctx, s, i, data)
	case cmdFirstMessage:
		err = b.handleFirstMessage(ctx, s, i)
	default:
		_, _ = b.sendText(s, i, "Unknown command.")
	}

	b.metrics.CommandHandled(data.Name, outcomeLabel(err))
}

// handleMessageCount handles /messagecount [user]
func (b *Bot) handleMessageCount(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) error {
	source, err := b.channelForInteraction(s, i)
	if err != nil {
		b.sendErrorMessage(s, i, cmdMessageCount, err)
		return err
	}

	var target *discordgo.User
	for _, opt := range data.Options {
		if opt.Name == "user" {
			target = opt.UserValue(s)
		}
	}

	var userID int64
	if target != nil {
		userID = parseSnowflake(target.ID)
	}

	report, err := b.service.CountMessages(ctx, source, userID)
	if err != nil {
		b.sendErrorMessage(s, i, cmdMessageCount, err)
		return err
	}

	if report.User != nil {
		name := displayName(target, resolvedMember(data, target.ID))
		b.sendEmbed(s, i, "", userCountEmbed(name, target.AvatarURL(""), report.User))
		return nil
	}

	b.sendEmbed(s, i, "", channelLeaderboardEmbed(report))
	return nil
}

// handleDailyCount handles /dailycount
func (b *Bot) handleDailyCount(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	source, err := b.channelForInteraction(s, i)
	if err != nil {
		b.sendErrorMessage(s, i, cmdDailyCount, err)
		return err
	}

	report, err := b.service.DailyCount(ctx, source)
	if err != nil {
		b.sendErrorMessage(s, i, cmdDailyCount, err)
		return err
	}

	b.sendEmbed(s, i, "", dailyLeaderboardEmbed(report))
	return nil
}

// handleGlobalDailyCount handles /globaldailycount
func (b *Bot) handleGlobalDailyCount(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if i.GuildID == "" {
		err := &pipeline.Error{Kind: pipeline.KindValidation, Message: "This command can only be used in a server!"}
		b.sendErrorMessage(s, i, cmdGlobalDailyCount, err)
		return err
	}

	guild, err := b.lookupGuild(i.GuildID)
	if err != nil {
		b.sendErrorMessage(s, i, cmdGlobalDailyCount, err)
		return err
	}

	report, err := b.service.GlobalDailyCount(ctx, newGuildSource(s, guild.ID, guild.Name, b.botUserID()))
	if err != nil {
		b.sendErrorMessage(s, i, cmdGlobalDailyCount, err)
		return err
	}

	b.sendEmbed(s, i, "", globalLeaderboardEmbed(report))
	return nil
}

// handleSummarize handles /summarize [timeframe]. A status message is posted
// before the completion service is called and later replaced by the result.
func (b *Bot) handleSummarize(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) error {
	source, err := b.channelForInteraction(s, i)
	if err != nil {
		b.sendErrorMessage(s, i, cmdSummarize, err)
		return err
	}

	timeframe := pipeline.DefaultTimeframe
	for _, opt := range data.Options {
		if opt.Name == "timeframe" {
			timeframe = opt.StringValue()
		}
	}

	var statusID string
	report, err := b.service.Summarize(ctx, source, timeframe, func(imageCount int) {
		msg, err := b.sendText(s, i, summaryStatusText(imageCount))
		if err == nil {
			statusID = msg.ID
		}
	})
	if err != nil {
		if statusID == "" {
			b.sendErrorMessage(s, i, cmdSummarize, err)
			return err
		}
		b.logCommandError(cmdSummarize, err)
		b.editMessage(s, i, statusID, userMessage(err), nil)
		return err
	}

	embed := summaryEmbed(report)
	if statusID == "" {
		b.sendEmbed(s, i, "", embed)
		return nil
	}

	b.editMessage(s, i, statusID, "", []*discordgo.MessageEmbed{embed})
	return nil
}

// handleFirstMessage handles /firstmessage
func (b *Bot) handleFirstMessage(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	source, err := b.channelForInteraction(s, i)
	if err != nil {
		b.sendErrorMessage(s, i, cmdFirstMessage, err)
		return err
	}

	report, err := b.service.FirstMessage(ctx, source)
	if err != nil {
		b.sendErrorMessage(s, i, cmdFirstMessage, err)
		return err
	}

	content := fmt.Sprintf("[Jump to message](%s)", report.Message.JumpURL)
	b.sendEmbed(s, i, content, firstMessageEmbed(report, i.ChannelID))
	return nil
}

// channelForInteraction resolves the channel the command was invoked in
func (b *Bot) channelForInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) (*channelSource, error) {
	channel, err := b.lookupChannel(i.ChannelID)
	if err != nil {
		return nil, err
	}
	return newChannelSource(s, i.GuildID, channel.ID, channel.Name, b.botUserID()), nil
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func resolvedMember(data discordgo.ApplicationCommandInteractionData, userID string) *discordgo.Member {
	if data.Resolved == nil {
		return nil
	}
	return data.Resolved.Members[userID]
}
