package cli

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/sprite-ai/beautyscan/internal/analyzer"
	"github.com/sprite-ai/beautyscan/internal/camera"
)

// newAnalyzer builds the analyzer selected by configuration: a remote
// beautyscan server when a backend URL is set, Gemini otherwise.
func newAnalyzer(ctx context.Context) (analyzer.Analyzer, error) {
	if backend := viper.GetString("backend"); backend != "" {
		return analyzer.NewRemote(backend), nil
	}

	prompts, err := analyzer.LoadPrompts(viper.GetString("prompts"))
	if err != nil {
		return nil, err
	}
	g, err := analyzer.NewGemini(ctx, viper.GetString("api_key"), viper.GetString("model"), prompts)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// sourceOptions selects where frames come from.
type sourceOptions struct {
	image   string
	watch   string
	device  string
	command []string
	maxEdge int
}

// newSource picks a still image, a watched directory or a capture device,
// in that order of precedence.
func newSource(opts sourceOptions) (camera.Source, error) {
	switch {
	case opts.image != "" && opts.watch != "":
		return nil, fmt.Errorf("--image and --watch are mutually exclusive")
	case opts.image != "":
		return camera.FileSource{Path: opts.image, MaxEdge: opts.maxEdge}, nil
	case opts.watch != "":
		return camera.WatchSource{Dir: opts.watch, MaxEdge: opts.maxEdge}, nil
	default:
		return camera.CommandSource{Device: opts.device, Command: opts.command, MaxEdge: opts.maxEdge}, nil
	}
}
