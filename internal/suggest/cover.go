package suggest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const (
	// ImageBaseURL renders an image for the prompt appended to it.
	ImageBaseURL = "https://image.pollinations.ai/prompt/"

	coverSize = 500

	emptyCoverPrompt    = "Abstract musical art, colorful, 4k"
	fallbackCoverPrompt = "Abstract digital art, music vibes, neon colors"
)

// CoverPrompter writes an image prompt for a playlist cover.
type CoverPrompter interface {
	CoverPrompt(ctx context.Context, seeds []string) (string, error)
}

var _ CoverPrompter = (*Ollama)(nil)

// CoverPrompt asks for a short image prompt built from up to ten seeds.
func (o *Ollama) CoverPrompt(ctx context.Context, seeds []string) (string, error) {
	if len(seeds) == 0 {
		return emptyCoverPrompt, nil
	}
	seeds = seeds[:min(historyWindow, len(seeds))]
	prompt := fmt.Sprintf(`Create a short, vivid, artistic image prompt (max 20 words) for a playlist cover art based on these songs: [%s].
Focus on the mood, colors, and abstract imagery. Return ONLY the prompt text.`, strings.Join(seeds, ", "))

	text, err := o.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if s := cleanLine(text); s != "" {
		return s, nil
	}
	return "", ErrEmpty
}

// ImageURL returns the address of a square image generated for prompt.
func ImageURL(prompt string) string {
	return fmt.Sprintf("%s%s?width=%d&height=%d&nologo=true",
		ImageBaseURL, url.PathEscape(prompt), coverSize, coverSize)
}

// Cover returns a generated cover URL for a playlist holding seeds. A nil
// prompter or a failed prompt falls back to a generic prompt; the error is
// returned alongside so callers can log it.
func Cover(ctx context.Context, p CoverPrompter, seeds []string) (string, error) {
	if len(seeds) == 0 {
		return ImageURL(emptyCoverPrompt), nil
	}
	if p == nil {
		return ImageURL(fallbackCoverPrompt), nil
	}
	prompt, err := p.CoverPrompt(ctx, seeds)
	if err != nil {
		return ImageURL(fallbackCoverPrompt), err
	}
	return ImageURL(prompt), nil
}
