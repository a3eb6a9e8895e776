package diarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/amanullahtanweer/speaker-align/internal/align"
)

// CommandDiarizer runs an external diarization program. The program receives
// the extra Args, then --audio, --min-speakers and --max-speakers, and must
// print a JSON array of {"start","end","speaker"} turns on stdout.
type CommandDiarizer struct {
	Command string
	Args    []string
}

func (c *CommandDiarizer) Diarize(ctx context.Context, audioPath string, bounds Bounds) ([]align.SpeakerTurn, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	path, err := exec.LookPath(c.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrUnavailable, c.Command)
	}

	args := append([]string(nil), c.Args...)
	args = append(args,
		"--audio", audioPath,
		"--min-speakers", strconv.Itoa(bounds.MinSpeakers),
		"--max-speakers", strconv.Itoa(bounds.MaxSpeakers),
	)

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = os.Environ()
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return nil, fmt.Errorf("%s failed: %s", c.Command, strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, fmt.Errorf("run %s: %w", c.Command, err)
	}

	var raw []rawTurn
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("%s returned invalid JSON: %w", c.Command, err)
	}
	return toTurns(raw), nil
}
