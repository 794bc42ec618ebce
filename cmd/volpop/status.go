package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/volpop/internal/instance"
)

var statusOpts struct {
	json bool
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the volume and whether a popup is open",
	Long: `Show the current volume and the state of the session lock file.

With --json the output is a Waybar custom module object:

  "custom/volume": {
    "exec": "volpop status --json",
    "interval": 2,
    "return-type": "json",
    "on-click": "volpop"
  }`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusOpts.json, "json", false,
		"Output Waybar-compatible JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	st, err := instance.Probe(lockPath())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	level, levelErr := newMixer().CurrentLevel(ctx)

	if statusOpts.json {
		return outputStatus(cmd, waybarStatus(st, level, levelErr))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Lock file:  %s\n", st.Path)
	switch {
	case !st.Exists:
		fmt.Fprintln(out, "Popup:      not running (no lock file yet)")
	case st.Held:
		fmt.Fprintln(out, "Popup:      open")
	default:
		fmt.Fprintln(out, "Popup:      not running")
	}
	if st.LastSignalPID > 0 {
		fmt.Fprintf(out, "Last call:  pid %d, %s\n", st.LastSignalPID, humanize.Time(st.ModTime))
	}
	if levelErr != nil {
		fmt.Fprintf(out, "Volume:     unavailable (%v)\n", levelErr)
	} else {
		fmt.Fprintf(out, "Volume:     %d%%\n", level)
	}
	return nil
}

func waybarStatus(st instance.Status, level int, levelErr error) WaybarStatus {
	if levelErr != nil {
		return WaybarStatus{Text: "", Alt: "error", Class: "error", Tooltip: levelErr.Error()}
	}

	status := WaybarStatus{
		Text:       strconv.Itoa(level) + "%",
		Percentage: level,
		Alt:        "closed",
		Class:      "closed",
		Tooltip:    "Volume " + strconv.Itoa(level) + "%",
	}
	if level == 0 {
		status.Alt = "muted"
	}
	if st.Held {
		status.Class = "open"
		if level != 0 {
			status.Alt = "open"
		}
	}
	if st.LastSignalPID > 0 {
		status.Tooltip += "\nLast changed " + humanize.Time(st.ModTime)
	}
	return status
}

func outputStatus(cmd *cobra.Command, status WaybarStatus) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	return enc.Encode(status)
}
