// Package discord plays the story in a Discord text channel. Every screen is
// posted as a message carrying the illustration and one button per allowed
// key; players answer by pressing a button or typing into the channel.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/storytrail/internal/input"
	"github.com/MrWong99/storytrail/internal/narrative"
	"github.com/MrWong99/storytrail/internal/render"
)

// Config holds Discord front end configuration.
type Config struct {
	// Token is the bot token without the "Bot " prefix.
	Token string `yaml:"token"`

	// ChannelID is the text channel the story is played in.
	ChannelID string `yaml:"channel_id"`
}

// sender is the subset of *discordgo.Session used to post screens.
type sender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Bot is both the renderer and the input source of a Discord play-through.
type Bot struct {
	session   *discordgo.Session
	send      sender
	channelID string
	parser    *input.Parser

	events    chan narrative.Event
	done      chan struct{}
	closeOnce sync.Once
}

// New connects to Discord and starts listening in cfg.ChannelID.
func New(_ context.Context, cfg Config, parser *input.Parser) (*Bot, error) {
	if cfg.Token == "" || cfg.ChannelID == "" {
		return nil, errors.New("discord: token and channel_id are required")
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	b := newBot(session, cfg.ChannelID, parser)
	b.session = session

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		botID := ""
		if s.State != nil && s.State.User != nil {
			botID = s.State.User.ID
		}
		b.onMessage(botID, m)
	})
	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if ev, ok := b.onInteraction(i); ok {
			acknowledge(s, i, ev)
			b.push(ev)
		}
	})

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("discord: open session: %w", err)
	}
	slog.Info("discord front end connected", "channel_id", cfg.ChannelID)
	return b, nil
}

func newBot(send sender, channelID string, parser *input.Parser) *Bot {
	if parser == nil {
		parser = input.NewParser()
	}
	return &Bot{
		send:      send,
		channelID: channelID,
		parser:    parser,
		events:    make(chan narrative.Event, 16),
		done:      make(chan struct{}),
	}
}

// Render posts f to the channel with its illustration attached.
func (b *Bot) Render(ctx context.Context, f render.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &discordgo.MessageSend{
		Content:    f.Text(),
		Components: componentsFor(f.Mode),
	}
	if f.ImagePath != "" {
		file, err := os.Open(f.ImagePath)
		if err != nil {
			slog.Warn("discord: illustration unavailable", "path", f.ImagePath, "err", err)
		} else {
			defer file.Close()
			msg.Files = []*discordgo.File{{
				Name:        filepath.Base(f.ImagePath),
				ContentType: "image/png",
				Reader:      file,
			}}
		}
	}
	if _, err := b.send.ChannelMessageSendComplex(b.channelID, msg, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: send frame: %w", err)
	}
	return nil
}

// Next returns the next player event. After [Bot.Close] queued events are
// drained first, then every call reports [narrative.EventWindowClose].
func (b *Bot) Next(ctx context.Context) (narrative.Event, error) {
	select {
	case ev := <-b.events:
		return ev, nil
	case <-b.done:
		select {
		case ev := <-b.events:
			return ev, nil
		default:
		}
		return narrative.EventWindowClose, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (b *Bot) onMessage(botID string, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.ChannelID != b.channelID {
		return
	}
	if m.Author != nil && (m.Author.Bot || m.Author.ID == botID) {
		return
	}
	if ev, ok := b.parser.Parse(m.Content); ok {
		b.push(ev)
	}
}

func (b *Bot) onInteraction(i *discordgo.InteractionCreate) (narrative.Event, bool) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionMessageComponent {
		return 0, false
	}
	if i.ChannelID != b.channelID {
		return 0, false
	}
	return eventForCustomID(i.MessageComponentData().CustomID)
}

// push queues ev, dropping it when players mash buttons faster than the
// story advances.
func (b *Bot) push(ev narrative.Event) {
	select {
	case <-b.done:
	case b.events <- ev:
	default:
		slog.Debug("discord: dropping event, queue full", "event", ev)
	}
}

// Close disconnects from Discord. Pending Next calls observe a window close.
func (b *Bot) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		if b.session != nil {
			if cerr := b.session.Close(); cerr != nil {
				err = fmt.Errorf("discord: close session: %w", cerr)
			}
		}
		slog.Info("discord front end closed")
	})
	return err
}

// ChannelID returns the channel the story is played in.
func (b *Bot) ChannelID() string {
	return b.channelID
}

// customIDPrefix namespaces button IDs so foreign components are ignored.
const customIDPrefix = "storytrail:"

func eventForCustomID(id string) (narrative.Event, bool) {
	name, ok := strings.CutPrefix(id, customIDPrefix)
	if !ok {
		return 0, false
	}
	for _, btn := range allButtons {
		if btn.name == name {
			return btn.event, true
		}
	}
	return 0, false
}
