package discord

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/storytrail/internal/narrative"
)

// responseFor answers a button press. The next screen always arrives as a
// new message, so most presses are deferred; quit also strips the buttons
// from the screen it was pressed on so the finished story cannot be clicked.
func responseFor(ev narrative.Event) *discordgo.InteractionResponse {
	if ev != narrative.EventQuit {
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate}
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{Components: []discordgo.MessageComponent{}},
	}
}

func acknowledge(s *discordgo.Session, i *discordgo.InteractionCreate, ev narrative.Event) {
	if err := s.InteractionRespond(i.Interaction, responseFor(ev)); err != nil {
		slog.Warn("discord: failed to acknowledge interaction", "event", ev, "err", err)
	}
}
