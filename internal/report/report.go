// Package report renders analysis results for non-interactive output.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/beautyscan/internal/model"
)

// Format is an output format for a finished analysis.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatText, FormatJSON, FormatMarkdown, FormatYAML}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatMarkdown, FormatYAML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (expected text, json, markdown or yaml)", s)
}

// Render formats r. Text output matches what the streaming printer writes.
func Render(r model.Result, format Format) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding json: %w", err)
		}
		return string(data) + "\n", nil
	case FormatYAML:
		data, err := yaml.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("encoding yaml: %w", err)
		}
		return string(data), nil
	case FormatMarkdown:
		return markdown(r), nil
	default:
		var b strings.Builder
		if r.Score != nil {
			b.WriteString(EventLine(model.Score(*r.Score)))
		}
		for _, p := range r.PositivePoints {
			b.WriteString(EventLine(model.Positive(p)))
		}
		for _, t := range r.ImprovementTips {
			b.WriteString(EventLine(model.Tip(t)))
		}
		return b.String(), nil
	}
}

// Write renders r to w, highlighting it when color is set.
func Write(w io.Writer, r model.Result, format Format, color bool) error {
	out, err := Render(r, format)
	if err != nil {
		return err
	}
	if color {
		out = Highlight(format, out)
	}
	_, err = io.WriteString(w, out)
	return err
}

// EventLine is the one-line text form of an event, newline terminated.
func EventLine(e model.Event) string {
	switch e.Kind {
	case model.KindScore:
		return fmt.Sprintf("Score: %d/100\n", e.Score)
	case model.KindPositive:
		return "+ " + e.Text + "\n"
	case model.KindTip:
		return "> " + e.Text + "\n"
	case model.KindError:
		return "error: " + e.Text + "\n"
	default:
		return ""
	}
}

func markdown(r model.Result) string {
	var b strings.Builder
	b.WriteString("# Beauty Analysis\n\n")
	if r.Score != nil {
		fmt.Fprintf(&b, "**Score:** %d/100\n\n", *r.Score)
	} else {
		b.WriteString("**Score:** n/a\n\n")
	}

	b.WriteString("## What looks great\n\n")
	if len(r.PositivePoints) == 0 {
		b.WriteString("_None reported._\n")
	}
	for _, p := range r.PositivePoints {
		fmt.Fprintf(&b, "- %s\n", p)
	}

	b.WriteString("\n## Tips\n\n")
	if len(r.ImprovementTips) == 0 {
		b.WriteString("_None reported._\n")
	}
	for _, t := range r.ImprovementTips {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	return b.String()
}
