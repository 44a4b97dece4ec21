package bot

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
	"github.com/chat-history-bot/internal/pipeline"
	"github.com/rs/zerolog"
)

// recoverMiddleware handles panics in interaction handlers
func (b *Bot) recoverMiddleware(command string, handler func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Interface("panic", r).
				Str("command", command).
				Str("stack", string(debug.Stack())).
				Msg("Panic recovered in handler")
			b.metrics.CommandHandled(command, "panic")
		}
	}()

	handler()
}

// deferResponse acknowledges the interaction so the reply can take longer than 3s
func (b *Bot) deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return fmt.Errorf("failed to defer interaction: %w", err)
	}
	return nil
}

// respondText replies immediately without deferring
func (b *Bot) respondText(s *discordgo.Session, i *discordgo.InteractionCreate, text string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: text},
	})
	if err != nil {
		b.logger.Error().
			Err(err).
			Str("channel_id", i.ChannelID).
			Msg("Failed to respond to interaction")
	}
}

// sendMessage sends a follow-up to a deferred interaction
func (b *Bot) sendMessage(s *discordgo.Session, i *discordgo.InteractionCreate, params *discordgo.WebhookParams) (*discordgo.Message, error) {
	msg, err := s.FollowupMessageCreate(i.Interaction, true, params)
	if err != nil {
		b.logger.Error().
			Err(err).
			Str("channel_id", i.ChannelID).
			Msg("Failed to send message")
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return msg, nil
}

func (b *Bot) sendText(s *discordgo.Session, i *discordgo.InteractionCreate, text string) (*discordgo.Message, error) {
	return b.sendMessage(s, i, &discordgo.WebhookParams{Content: text})
}

func (b *Bot) sendEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, content string, embed *discordgo.MessageEmbed) {
	_, _ = b.sendMessage(s, i, &discordgo.WebhookParams{
		Content: content,
		Embeds:  []*discordgo.MessageEmbed{embed},
	})
}

// editMessage replaces a previously sent follow-up with new content and embeds
func (b *Bot) editMessage(s *discordgo.Session, i *discordgo.InteractionCreate, messageID, content string, embeds []*discordgo.MessageEmbed) {
	edit := &discordgo.WebhookEdit{Content: &content}
	if embeds != nil {
		edit.Embeds = &embeds
	}

	if _, err := s.FollowupMessageEdit(i.Interaction, messageID, edit); err != nil {
		b.logger.Error().
			Err(err).
			Str("message_id", messageID).
			Msg("Failed to edit message")
	}
}

// sendErrorMessage renders a command failure for the user and logs it at a
// level matching its kind
func (b *Bot) sendErrorMessage(s *discordgo.Session, i *discordgo.InteractionCreate, command string, err error) {
	text := userMessage(err)
	b.logCommandError(command, err)
	_, _ = b.sendText(s, i, text)
}

func (b *Bot) logCommandError(command string, err error) {
	level := zerolog.ErrorLevel
	if pErr, ok := asPipelineError(err); ok {
		switch pErr.Kind {
		case pipeline.KindValidation, pipeline.KindEmpty:
			level = zerolog.DebugLevel
		case pipeline.KindPermission:
			level = zerolog.WarnLevel
		}
	}

	b.logger.WithLevel(level).
		Err(err).
		Str("command", command).
		Msg("Command failed")
}

// userMessage returns the text shown to the user for err
func userMessage(err error) string {
	if pErr, ok := asPipelineError(err); ok {
		return pErr.Message
	}
	return fmt.Sprintf("An error occurred: %v", err)
}

// outcomeLabel is the metrics outcome for a command result
func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if pErr, ok := asPipelineError(err); ok {
		return pErr.Kind.String()
	}
	return pipeline.KindUnclassified.String()
}

func asPipelineError(err error) (*pipeline.Error, bool) {
	var pErr *pipeline.Error
	if errors.As(err, &pErr) {
		return pErr, true
	}
	return nil, false
}
