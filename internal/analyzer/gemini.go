package analyzer

import (
	"context"
	"errors"
	"log"
	"strings"

	genai "google.golang.org/genai"

	"github.com/sprite-ai/beautyscan/internal/stream"
)

// Gemini analyzes images with the Gemini API, streaming the model's text
// as it is generated.
type Gemini struct {
	cli     *genai.Client
	model   string
	prompts Prompts
}

// NewGemini creates a Gemini analyzer. An empty model uses the one named in
// prompts.
func NewGemini(ctx context.Context, apiKey, model string, prompts Prompts) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, &Error{Kind: KindConfig, Message: "the API key is not configured on the server"}
	}
	if model == "" {
		model = prompts.Model
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &Error{Kind: KindConfig, Message: "could not create the Gemini client", Cause: err}
	}
	return &Gemini{cli: cli, model: model, prompts: prompts}, nil
}

// Name identifies the analyzer in logs.
func (g *Gemini) Name() string { return "Gemini:" + g.model }

// Analyze implements Analyzer.
func (g *Gemini) Analyze(ctx context.Context, img Image) (<-chan stream.Fragment, error) {
	if len(img.Data) == 0 {
		return nil, &Error{Kind: KindValidation, Message: "image data is missing from the request"}
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(img.Data, MIMEType),
			genai.NewPartFromText(g.prompts.Prompt),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.prompts.System, genai.RoleUser),
	}

	out := make(chan stream.Fragment)
	go func() {
		defer close(out)
		for resp, err := range g.cli.Models.GenerateContentStream(ctx, g.model, contents, cfg) {
			var f stream.Fragment
			if err != nil {
				log.Printf("gemini stream (%s): %v", g.model, err)
				f.Err = classifyGeminiError(err)
			} else if resp != nil {
				f.Text = resp.Text()
			}
			if f.Err == nil && f.Text == "" {
				continue
			}
			select {
			case out <- f:
			case <-ctx.Done():
				return
			}
			if f.Err != nil {
				return
			}
		}
	}()
	return out, nil
}

// classifyGeminiError turns a provider failure into an *Error. The provider
// reports a bad key only through its message text.
func classifyGeminiError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTransport, Message: "the analysis was cancelled", Cause: err}
	}
	msg := err.Error()
	if strings.Contains(msg, "API key not valid") || strings.Contains(msg, "API_KEY_INVALID") {
		return &Error{Kind: KindAuth, Message: "the API key is not valid; check the server configuration", Cause: err}
	}
	return &Error{Kind: KindProvider, Message: FallbackMessage, Cause: err}
}
