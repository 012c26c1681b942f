package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/storytrail/internal/narrative"
)

type button struct {
	name  string
	label string
	emoji string
	style discordgo.ButtonStyle
	event narrative.Event
}

var (
	continueButton = button{"continue", "Continue", "▶️", discordgo.PrimaryButton, narrative.EventContinue}
	leftButton     = button{"left", "Left", "⬅️", discordgo.PrimaryButton, narrative.EventChooseLeft}
	rightButton    = button{"right", "Right", "➡️", discordgo.PrimaryButton, narrative.EventChooseRight}
	helpButton     = button{"help", "Help", "❓", discordgo.SecondaryButton, narrative.EventRequestHelp}
	quitButton     = button{"quit", "Quit", "", discordgo.DangerButton, narrative.EventQuit}

	allButtons = []button{continueButton, leftButton, rightButton, helpButton, quitButton}
)

// buttonsFor returns the buttons that match the on-screen hint of mode.
func buttonsFor(mode string) []button {
	switch mode {
	case narrative.ModeChoice.String():
		return []button{leftButton, rightButton, helpButton}
	case narrative.ModeWin.String():
		return []button{quitButton}
	case narrative.ModeQuit.String(), narrative.ModeClosed.String():
		return nil
	default:
		return []button{continueButton, helpButton, quitButton}
	}
}

func componentsFor(mode string) []discordgo.MessageComponent {
	btns := buttonsFor(mode)
	if len(btns) == 0 {
		return nil
	}
	row := discordgo.ActionsRow{}
	for _, b := range btns {
		c := discordgo.Button{
			Label:    b.label,
			Style:    b.style,
			CustomID: customIDPrefix + b.name,
		}
		if b.emoji != "" {
			c.Emoji = &discordgo.ComponentEmoji{Name: b.emoji}
		}
		row.Components = append(row.Components, c)
	}
	return []discordgo.MessageComponent{row}
}
