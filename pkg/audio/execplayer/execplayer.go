// Package execplayer implements audio.Player by running an external command
// line player such as ffplay, mpg123 or afplay with the clip path appended to
// its arguments.
package execplayer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/MrWong99/storytrail/pkg/audio"
)

// DefaultCommand plays a clip with ffplay without opening a window.
var DefaultCommand = []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}

// Compile-time interface assertion.
var _ audio.Player = (*Player)(nil)

// Player runs one process per clip.
type Player struct {
	command []string
}

// New returns a Player for command. An empty command selects
// [DefaultCommand]. The executable must be resolvable through PATH.
func New(command []string) (*Player, error) {
	if len(command) == 0 {
		command = DefaultCommand
	}
	if _, err := exec.LookPath(command[0]); err != nil {
		return nil, fmt.Errorf("execplayer: %q not found: %w", command[0], err)
	}
	cp := make([]string, len(command))
	copy(cp, command)
	return &Player{command: cp}, nil
}

// Play implements audio.Player. Cancelling ctx kills the player process.
func (p *Player) Play(ctx context.Context, path string) error {
	args := append(append([]string{}, p.command[1:]...), path)
	cmd := exec.CommandContext(ctx, p.command[0], args...)
	err := cmd.Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("execplayer: %s exited with %d", p.command[0], exitErr.ExitCode())
		}
		return fmt.Errorf("execplayer: run %s: %w", p.command[0], err)
	}
	return nil
}
