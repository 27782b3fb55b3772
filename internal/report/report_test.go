package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/beautyscan/internal/model"
)

func sampleResult() model.Result {
	score := 82
	return model.Result{
		Score:           &score,
		PositivePoints:  []string{"bright eyes", "even skin tone"},
		ImprovementTips: []string{"face the window"},
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"text":     FormatText,
		"JSON":     FormatJSON,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
		"yml":      FormatYAML,
		" yaml ":   FormatYAML,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRenderJSON(t *testing.T) {
	out, err := Render(sampleResult(), FormatJSON)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got["score"] != float64(82) {
		t.Errorf("expected score 82, got %v", got["score"])
	}
	if pts, ok := got["positive_points"].([]any); !ok || len(pts) != 2 {
		t.Errorf("unexpected positive_points %v", got["positive_points"])
	}
	if tips, ok := got["improvement_tips"].([]any); !ok || len(tips) != 1 {
		t.Errorf("unexpected improvement_tips %v", got["improvement_tips"])
	}
}

func TestRenderJSONNullScore(t *testing.T) {
	out, err := Render(model.Result{}, FormatJSON)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, `"score": null`) {
		t.Errorf("expected null score, got %s", out)
	}
}

func TestRenderYAML(t *testing.T) {
	out, err := Render(sampleResult(), FormatYAML)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	var got model.Result
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if got.Score == nil || *got.Score != 82 {
		t.Errorf("expected score 82, got %v", got.Score)
	}
	if len(got.ImprovementTips) != 1 || got.ImprovementTips[0] != "face the window" {
		t.Errorf("unexpected tips %v", got.ImprovementTips)
	}
}

func TestRenderMarkdown(t *testing.T) {
	out, err := Render(sampleResult(), FormatMarkdown)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{"**Score:** 82/100", "- bright eyes", "- face the window"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected markdown to contain %q:\n%s", want, out)
		}
	}

	empty, _ := Render(model.Result{}, FormatMarkdown)
	if !strings.Contains(empty, "n/a") || !strings.Contains(empty, "_None reported._") {
		t.Errorf("unexpected empty markdown:\n%s", empty)
	}
}

func TestRenderText(t *testing.T) {
	out, err := Render(sampleResult(), FormatText)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "Score: 82/100\n+ bright eyes\n+ even skin tone\n> face the window\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestEventLine(t *testing.T) {
	if got := EventLine(model.Error("boom")); got != "error: boom\n" {
		t.Errorf("unexpected error line %q", got)
	}
	if got := EventLine(model.Done()); got != "" {
		t.Errorf("expected no line for done, got %q", got)
	}
}

func TestWritePlain(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResult(), FormatJSON, false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Error("expected no escape codes without color")
	}
}
