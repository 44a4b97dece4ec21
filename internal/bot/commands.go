package bot

import "github.com/bwmarrin/discordgo"

// Slash command names
const (
	cmdMessageCount     = "messagecount"
	cmdDailyCount       = "dailycount"
	cmdGlobalDailyCount = "globaldailycount"
	cmdSummarize        = "summarize"
	cmdFirstMessage     = "firstmessage"
	cmdListenToHank     = "listen-to-hank"
)

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        cmdMessageCount,
		Description: "Count messages by user in this channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "Optional: specific user to check",
			},
		},
	},
	{
		Name:        cmdDailyCount,
		Description: "Count messages sent today by each user in this channel",
	},
	{
		Name:        cmdGlobalDailyCount,
		Description: "Count messages sent today across all channels in the server",
	},
	{
		Name:        cmdSummarize,
		Description: "Generate an AI summary of messages in this channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "timeframe",
				Description: `Enter like "1 hour" or "2 days" (default: 1 day)`,
			},
		},
	},
	{
		Name:        cmdFirstMessage,
		Description: "Get the first message in this channel",
	},
	{
		Name:        cmdListenToHank,
		Description: "Listen to Hank?",
	},
}
