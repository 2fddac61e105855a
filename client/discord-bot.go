package client

import (
	"fmt"
	"sort"
	"strings"

	"tally/config"
	"tally/repository"
	"tally/scoring"

	"github.com/bwmarrin/discordgo"
)

// DiscordAnnouncer posts the final standings to a discord channel when an
// event is completed. Announcements are a courtesy: the bot being absent
// or misconfigured never affects tabulation.
type DiscordAnnouncer struct {
	session   *discordgo.Session
	channelId string
}

// NewDiscordAnnouncer returns nil without error when no bot token is
// configured.
func NewDiscordAnnouncer() (*DiscordAnnouncer, error) {
	cfg := config.Env()
	if cfg.DiscordBotToken == "" || cfg.DiscordChannelID == "" {
		return nil, nil
	}
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, err
	}
	return &DiscordAnnouncer{
		session:   session,
		channelId: cfg.DiscordChannelID,
	}, nil
}

func (a *DiscordAnnouncer) AnnounceFinalResult(event *repository.Event, participants []*repository.Participant, result *scoring.FinalResult) error {
	names := make(map[int]string, len(participants))
	for _, participant := range participants {
		names[participant.Id] = participant.Name
	}

	ranked := make([]scoring.FinalRow, 0, len(result.Rows))
	for _, row := range result.Rows {
		if row.Rank != nil {
			ranked = append(ranked, row)
		}
	}
	sort.Slice(ranked, func(i, j int) bool { return *ranked[i].Rank < *ranked[j].Rank })

	var b strings.Builder
	fmt.Fprintf(&b, "**%s — Final Results**\n", event.Name)
	for _, row := range ranked {
		fmt.Fprintf(&b, "%d. %s (mean rank %.2f)\n", *row.Rank, names[row.ParticipantId], *row.MeanRank)
	}
	if len(ranked) == 0 {
		b.WriteString("No submissions were recorded.\n")
	}

	_, err := a.session.ChannelMessageSend(a.channelId, b.String())
	return err
}
