package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
)

var (
	limitsRe  = regexp.MustCompile(`(?m)^\s*Limits:.*?Playback\s+(-?\d+)\s*-\s*(-?\d+)`)
	channelRe = regexp.MustCompile(`(?m)^\s*[\w ]+:\s+Playback\s+(-?\d+)\s+\[`)
)

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the command with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Amixer is a Backend driving an ALSA simple mixer element through amixer.
type Amixer struct {
	Command string // defaults to "amixer"
	Card    string
	Control string
	Run     Runner // defaults to ExecRunner
}

// NewAmixer creates an amixer backend for control on card.
func NewAmixer(command, card, control string) *Amixer {
	return &Amixer{
		Command: command,
		Card:    card,
		Control: control,
		Run:     ExecRunner,
	}
}

// Open reads the element's limits and current playback volume.
func (a *Amixer) Open(ctx context.Context) (Handle, error) {
	out, err := a.run(ctx, "sget", a.Control)
	if err != nil {
		return nil, err
	}

	lo, hi, raw, err := parseSget(out)
	if err != nil {
		return nil, fmt.Errorf("control %q: %w", a.Control, err)
	}

	return &amixerHandle{amixer: a, lo: lo, hi: hi, raw: raw}, nil
}

func (a *Amixer) run(ctx context.Context, args ...string) ([]byte, error) {
	command := a.Command
	if command == "" {
		command = "amixer"
	}
	run := a.Run
	if run == nil {
		run = ExecRunner
	}

	full := make([]string, 0, len(args)+3)
	if a.Card != "" {
		full = append(full, "-D", a.Card)
	}
	full = append(full, args...)
	return run(ctx, command, full...)
}

// parseSget extracts the playback limits and the first channel's raw volume.
func parseSget(out []byte) (lo, hi, raw int64, err error) {
	m := limitsRe.FindSubmatch(out)
	if m == nil {
		return 0, 0, 0, errors.New("no playback volume limits reported")
	}
	if lo, err = strconv.ParseInt(string(m[1]), 10, 64); err != nil {
		return 0, 0, 0, err
	}
	if hi, err = strconv.ParseInt(string(m[2]), 10, 64); err != nil {
		return 0, 0, 0, err
	}

	c := channelRe.FindSubmatch(out)
	if c == nil {
		return 0, 0, 0, errors.New("no playback channel reported")
	}
	if raw, err = strconv.ParseInt(string(c[1]), 10, 64); err != nil {
		return 0, 0, 0, err
	}
	return lo, hi, raw, nil
}

type amixerHandle struct {
	amixer *Amixer
	lo, hi int64
	raw    int64
}

func (h *amixerHandle) Range() (int64, int64) { return h.lo, h.hi }

func (h *amixerHandle) Volume() int64 { return h.raw }

func (h *amixerHandle) SetVolume(ctx context.Context, raw int64) error {
	if _, err := h.amixer.run(ctx, "-q", "sset", h.amixer.Control, strconv.FormatInt(raw, 10)); err != nil {
		return err
	}
	h.raw = raw
	return nil
}

// Close is a no-op: each amixer invocation already released the device.
func (h *amixerHandle) Close() error { return nil }
