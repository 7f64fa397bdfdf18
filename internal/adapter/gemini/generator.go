package gemini

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

var ErrEmptyResponse = errors.New("gemini returned no text")

// Generator produces JSON-mode completions used for reranking.
type Generator struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGenerator(client *genai.Client, model string, temperature float32) *Generator {
	return &Generator{client: client, model: model, temperature: temperature}
}

func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	m := g.client.GenerativeModel(g.model)
	m.SetTemperature(g.temperature)
	m.ResponseMIMEType = "application/json"
	if system != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	slog.DebugContext(ctx, "generating content", "model", g.model, "length", len(prompt))
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		slog.ErrorContext(ctx, "generation failed", "error", err)
		return "", err
	}

	var b strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		break
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}
