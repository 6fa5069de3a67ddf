package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// forgetCommand is the administrative slash command that clears conversation
// history.
const forgetCommand = "forget"

// commands returns the application commands registered on connect.
func commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        forgetCommand,
			Description: "forget everything, or just a little bit",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "the channel to forget",
					Required:    false,
				},
			},
		},
	}
}

// Forget clears the transcript for one channel, or all transcripts when
// channelID is empty, and returns the confirmation text. It always succeeds.
func (b *Bot) Forget(channelID string) string {
	if channelID != "" {
		b.history.Remove(channelID)
		return fmt.Sprintf("forgetting channel <#%s>", channelID)
	}
	b.history.Clear()
	return "forgetting everything"
}

// onInteractionCreate handles slash command invocations.
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()

	var content string
	switch data.Name {
	case forgetCommand:
		channelID := ""
		if len(data.Options) > 0 {
			channelID = data.Options[0].ChannelValue(nil).ID
		}
		content = b.Forget(channelID)
	default:
		content = "error, command not implemented"
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		b.logger.Warn("failed to respond to command", "command", data.Name, "error", err)
	}
}
