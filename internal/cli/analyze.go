package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/beautyscan/internal/analyzer"
	"github.com/sprite-ai/beautyscan/internal/camera"
	"github.com/sprite-ai/beautyscan/internal/model"
	"github.com/sprite-ai/beautyscan/internal/report"
	"github.com/sprite-ai/beautyscan/internal/stream"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Analyze an image file and print the result (non-interactive)",
	Long: `Analyze a single photo and print the result. In text format each
finding is printed as soon as it arrives; the other formats print the
final result once the analysis is complete. Use - to read the image from
stdin.

Exit codes:
  0 — analysis completed
  1 — the image could not be read or the analysis failed`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringP("format", "f", "text", "output format: text, json, markdown, yaml")
	analyzeCmd.Flags().Bool("color", false, "syntax-highlight json, yaml and markdown output")
	analyzeCmd.Flags().Int("max-edge", camera.DefaultMaxEdge, "downscale the image so its longest side is at most this many pixels")
	analyzeCmd.Flags().Duration("timeout", 2*time.Minute, "give up on the analysis after this long")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	color, _ := cmd.Flags().GetBool("color")
	maxEdge, _ := cmd.Flags().GetInt("max-edge")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	img, err := readImage(cmd.Context(), args[0], cmd.InOrStdin(), maxEdge)
	if err != nil {
		return err
	}

	a, err := newAnalyzer(cmd.Context())
	if err != nil {
		return fmt.Errorf("analysis failed: %s", analyzer.UserMessage(err))
	}

	quietLogs()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	out := cmd.OutOrStdout()
	state, err := analyze(ctx, a, img, func(e model.Event) {
		if format == report.FormatText {
			io.WriteString(out, report.EventLine(e))
		}
	})
	if err != nil {
		return err
	}

	if format == report.FormatText {
		return nil
	}
	return report.Write(out, state.Result(), format, color)
}

// analyze runs one analysis to completion, calling onEvent for every data
// event as it arrives. A terminal error event becomes the returned error.
func analyze(ctx context.Context, a analyzer.Analyzer, img analyzer.Image, onEvent func(model.Event)) (model.AnalysisState, error) {
	var state model.AnalysisState

	fragments, err := a.Analyze(ctx, img)
	if err != nil {
		return state, fmt.Errorf("analysis failed: %s", analyzer.UserMessage(err))
	}

	for e := range stream.Interpret(ctx, fragments, analyzer.UserMessage) {
		switch e.Kind {
		case model.KindError:
			return state, fmt.Errorf("analysis failed: %s", e.Text)
		case model.KindDone:
			return state, nil
		}
		state.Apply(e)
		onEvent(e)
	}

	// The interpreter stops without a terminal event only when ctx ends.
	if err := ctx.Err(); errors.Is(err, context.DeadlineExceeded) {
		return state, fmt.Errorf("analysis failed: timed out")
	}
	return state, fmt.Errorf("analysis failed: cancelled")
}

// readImage loads path (or stdin for "-") through the same normalization a
// camera frame gets.
func readImage(ctx context.Context, path string, stdin io.Reader, maxEdge int) (analyzer.Image, error) {
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return analyzer.Image{}, fmt.Errorf("reading stdin: %w", err)
		}
		jpg, err := camera.EncodeJPEG(raw, maxEdge)
		if err != nil {
			return analyzer.Image{}, err
		}
		return analyzer.Image{Data: jpg}, nil
	}

	if _, err := os.Stat(path); err != nil {
		return analyzer.Image{}, fmt.Errorf("reading image: %w", err)
	}

	st, err := camera.FileSource{Path: path, MaxEdge: maxEdge}.Open(ctx)
	if err != nil {
		return analyzer.Image{}, err
	}
	defer st.Close()

	jpg, err := st.Capture(ctx)
	if err != nil {
		return analyzer.Image{}, fmt.Errorf("reading image: %w", err)
	}
	return analyzer.Image{Data: jpg}, nil
}
