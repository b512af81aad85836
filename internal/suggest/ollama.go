package suggest

import (
	"context"
	"fmt"
	"strings"

	ollama "github.com/ollama/ollama/api"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "llama3.1:8b"

// Generator is the part of the Ollama client used here.
type Generator interface {
	Generate(ctx context.Context, req *ollama.GenerateRequest, fn ollama.GenerateResponseFunc) error
}

// Ollama asks a local LLM for suggestions.
type Ollama struct {
	client Generator
	model  string
}

var _ Suggester = (*Ollama)(nil)

// NewOllama creates a provider on client. An empty model uses DefaultModel.
func NewOllama(client Generator, model string) *Ollama {
	if model == "" {
		model = DefaultModel
	}
	return &Ollama{client: client, model: model}
}

// OllamaFromEnvironment connects using OLLAMA_HOST.
func OllamaFromEnvironment(model string) (*Ollama, error) {
	client, err := ollama.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("could not create ollama client: %w", err)
	}
	return NewOllama(client, model), nil
}

func (o *Ollama) generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &ollama.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream,
	}

	var out strings.Builder
	err := o.client.Generate(ctx, req, func(resp ollama.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generation failed: %w", err)
	}
	return out.String(), nil
}

// SuggestNext asks for one song in the vibe of seed.
func (o *Ollama) SuggestNext(ctx context.Context, seed string) (string, error) {
	prompt := fmt.Sprintf(`Based on the song '%s', suggest ONE single song to play next that fits the vibe.
Return ONLY the string "Artist - Title".
Do not include any markdown formatting, JSON, or explanations.`, seed)

	text, err := o.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if s := cleanLine(text); s != "" {
		return s, nil
	}
	return "", ErrEmpty
}

// SuggestMood asks for songs that match mood.
func (o *Ollama) SuggestMood(ctx context.Context, mood string) ([]string, error) {
	mood = strings.TrimSpace(mood)
	if mood == "" {
		return nil, nil
	}
	prompt := fmt.Sprintf(`Suggest %d songs that perfectly match the mood: "%s".
Return ONLY a JSON array of strings, where each string is "Artist - Title".
Do not include any markdown formatting or explanations.`, ManyLimit, mood)
	return o.list(ctx, prompt)
}

// SuggestMany asks for new songs matching a listening history.
func (o *Ollama) SuggestMany(ctx context.Context, seeds []string) ([]string, error) {
	if len(seeds) == 0 {
		return nil, nil
	}
	seeds = seeds[:min(historyWindow, len(seeds))]
	prompt := fmt.Sprintf(`Based on the user's listening history: [%s],
suggest %d new songs they might like.
Return ONLY a JSON array of strings, where each string is "Artist - Title".
Do not include any markdown formatting or explanations.`, strings.Join(seeds, ", "), ManyLimit)
	return o.list(ctx, prompt)
}

// list runs a prompt that answers with a JSON array of songs.
func (o *Ollama) list(ctx context.Context, prompt string) ([]string, error) {
	text, err := o.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	list, err := parseList(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ollama response %q: %w", text, err)
	}
	return list[:min(ManyLimit, len(list))], nil
}
