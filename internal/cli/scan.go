package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/beautyscan/internal/camera"
	"github.com/sprite-ai/beautyscan/internal/report"
	"github.com/sprite-ai/beautyscan/internal/tui"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Open an interactive scan session",
	Long: `Open a terminal session that takes a photo and shows the analysis as it
streams in. Frames come from a capture device by default (grabbed with
ffmpeg), or from a still image or a watched directory.

Examples:
  beautyscan scan                          # /dev/video0 via ffmpeg
  beautyscan scan --device /dev/video2
  beautyscan scan --image selfie.jpg
  beautyscan scan --watch ~/Pictures/Camera  # newest photo in a folder
  beautyscan scan --backend http://localhost:6142`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringP("image", "i", "", "use a still image instead of a camera")
	scanCmd.Flags().StringP("watch", "w", "", "use the newest image written to a directory")
	scanCmd.Flags().StringP("device", "d", camera.DefaultDevice, "capture device")
	scanCmd.Flags().StringSlice("capture-command", nil, "command that writes one JPEG frame to stdout ({device} is replaced)")
	scanCmd.Flags().Int("max-edge", camera.DefaultMaxEdge, "downscale photos so their longest side is at most this many pixels")
	scanCmd.Flags().Bool("skip-intro", false, "start at the ready screen")
}

func runScan(cmd *cobra.Command, args []string) error {
	image, _ := cmd.Flags().GetString("image")
	watch, _ := cmd.Flags().GetString("watch")
	device, _ := cmd.Flags().GetString("device")
	command, _ := cmd.Flags().GetStringSlice("capture-command")
	maxEdge, _ := cmd.Flags().GetInt("max-edge")
	skipIntro, _ := cmd.Flags().GetBool("skip-intro")

	src, err := newSource(sourceOptions{image: image, watch: watch, device: device, command: command, maxEdge: maxEdge})
	if err != nil {
		return err
	}

	a, err := newAnalyzer(cmd.Context())
	if err != nil {
		return err
	}

	quietLogs()

	final, err := tui.Run(tui.Options{Source: src, Analyzer: a, SkipIntro: skipIntro})
	if err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	// Leave the last complete result on the terminal after the alt screen closes.
	if ctrl := final.Controller(); ctrl != nil && ctrl.Complete() {
		return report.Write(cmd.OutOrStdout(), ctrl.Analysis().Result(), report.FormatText, false)
	}
	return nil
}
