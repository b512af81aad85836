package suggest

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	ollama "github.com/ollama/ollama/api"

	"github.com/llehouerou/drift/internal/lastfm"
)

type fakeGenerator struct {
	chunks []string
	err    error
	req    *ollama.GenerateRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req *ollama.GenerateRequest, fn ollama.GenerateResponseFunc) error {
	f.req = req
	if f.err != nil {
		return f.err
	}
	for _, c := range f.chunks {
		if err := fn(ollama.GenerateResponse{Response: c}); err != nil {
			return err
		}
	}
	return nil
}

func TestCleanLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Daft Punk - Digital Love", "Daft Punk - Digital Love"},
		{"  \"Daft Punk - Digital Love\"\n", "Daft Punk - Digital Love"},
		{"```\nDaft Punk - Digital Love\n```", "Daft Punk - Digital Love"},
		{"1. Daft Punk - Digital Love\n2. Other - Song", "Daft Punk - Digital Love"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanLine(tt.in); got != tt.want {
			t.Errorf("cleanLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseList(t *testing.T) {
	got, err := parseList("```json\n[\"A - One\", \" \", \"B - Two\"]\n```")
	if err != nil {
		t.Fatalf("parseList() error = %v", err)
	}
	if !slices.Equal(got, []string{"A - One", "B - Two"}) {
		t.Errorf("parseList() = %v", got)
	}

	if _, err := parseList("not json"); err == nil {
		t.Error("parseList() should fail on non-JSON")
	}
}

func TestSplitSeed(t *testing.T) {
	tests := []struct {
		seed, artist, title string
	}{
		{"Daft Punk - One More Time", "Daft Punk", "One More Time"},
		{"Jay-Z - 99 Problems - Live", "Jay-Z", "99 Problems - Live"},
		{"Untitled", "", "Untitled"},
		{" - Untitled", "", "Untitled"},
	}
	for _, tt := range tests {
		a, ti := SplitSeed(tt.seed)
		if a != tt.artist || ti != tt.title {
			t.Errorf("SplitSeed(%q) = %q, %q; want %q, %q", tt.seed, a, ti, tt.artist, tt.title)
		}
	}
}

func TestOllama_SuggestNext(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"Justice - ", "D.A.N.C.E.\n"}}
	o := NewOllama(gen, "")

	got, err := o.SuggestNext(context.Background(), "Daft Punk - One More Time")
	if err != nil {
		t.Fatalf("SuggestNext() error = %v", err)
	}
	if got != "Justice - D.A.N.C.E." {
		t.Errorf("SuggestNext() = %q", got)
	}
	if gen.req.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", gen.req.Model, DefaultModel)
	}
	if !strings.Contains(gen.req.Prompt, "'Daft Punk - One More Time'") {
		t.Errorf("prompt does not carry the seed: %q", gen.req.Prompt)
	}
	if gen.req.Stream == nil || *gen.req.Stream {
		t.Error("request should disable streaming")
	}
}

func TestOllama_Errors(t *testing.T) {
	boom := errors.New("connection refused")
	if _, err := NewOllama(&fakeGenerator{err: boom}, "m").SuggestNext(context.Background(), "s"); !errors.Is(err, boom) {
		t.Errorf("SuggestNext() error = %v, want %v", err, boom)
	}
	if _, err := NewOllama(&fakeGenerator{chunks: []string{"```\n```"}}, "m").SuggestNext(context.Background(), "s"); !errors.Is(err, ErrEmpty) {
		t.Errorf("SuggestNext() error = %v, want ErrEmpty", err)
	}
}

func TestOllama_SuggestMany(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{`["A - 1","B - 2","C - 3","D - 4","E - 5","F - 6"]`}}
	o := NewOllama(gen, "m")

	seeds := make([]string, 12)
	for i := range seeds {
		seeds[i] = "Seed - " + string(rune('a'+i))
	}
	got, err := o.SuggestMany(context.Background(), seeds)
	if err != nil {
		t.Fatalf("SuggestMany() error = %v", err)
	}
	if len(got) != ManyLimit {
		t.Errorf("len = %d, want %d", len(got), ManyLimit)
	}
	if strings.Contains(gen.req.Prompt, "Seed - k") {
		t.Error("prompt should only carry the ten most recent seeds")
	}

	none, err := o.SuggestMany(context.Background(), nil)
	if err != nil || none != nil {
		t.Errorf("SuggestMany(nil) = %v, %v", none, err)
	}
}

type fakeSimilar map[string][]lastfm.SimilarTrack

func (f fakeSimilar) GetSimilarTracks(artist, track string, _ int) ([]lastfm.SimilarTrack, error) {
	res, ok := f[artist+" - "+track]
	if !ok {
		return nil, errors.New("track not found")
	}
	return res, nil
}

// GetTagTopTracks answers from entries keyed "tag:<name>".
func (f fakeSimilar) GetTagTopTracks(tag string, _ int) ([]lastfm.SimilarTrack, error) {
	res, ok := f["tag:"+tag]
	if !ok {
		return nil, errors.New("tag not found")
	}
	return res, nil
}

func TestLastfm_SuggestNext(t *testing.T) {
	l := NewLastfm(fakeSimilar{
		"Daft Punk - One More Time": {{Artist: "Justice", Name: "D.A.N.C.E.", MatchScore: 1}},
		"Nobody - Nothing":          nil,
	})

	got, err := l.SuggestNext(context.Background(), "Daft Punk - One More Time")
	if err != nil || got != "Justice - D.A.N.C.E." {
		t.Errorf("SuggestNext() = %q, %v", got, err)
	}
	if _, err := l.SuggestNext(context.Background(), "Nobody - Nothing"); !errors.Is(err, ErrEmpty) {
		t.Errorf("SuggestNext() error = %v, want ErrEmpty", err)
	}
	if _, err := l.SuggestNext(context.Background(), "no separator"); err == nil {
		t.Error("SuggestNext() should reject a seed without artist")
	}
}

func TestLastfm_SuggestMany(t *testing.T) {
	l := NewLastfm(fakeSimilar{
		"A - 1": {{Artist: "X", Name: "1"}, {Artist: "B", Name: "2"}, {Artist: "X", Name: "2"}},
		"B - 2": {{Artist: "Y", Name: "1"}, {Artist: "X", Name: "1"}, {Artist: "Y", Name: "2"}},
	})

	got, err := l.SuggestMany(context.Background(), []string{"A - 1", "B - 2", "Missing - Seed"})
	if err != nil {
		t.Fatalf("SuggestMany() error = %v", err)
	}
	want := []string{"X - 1", "Y - 1", "X - 2", "Y - 2"}
	if !slices.Equal(got, want) {
		t.Errorf("SuggestMany() = %v, want %v", got, want)
	}
}

func TestCleanLine_KeepsLeadingDigits(t *testing.T) {
	if got := cleanLine("50 Cent - In Da Club"); got != "50 Cent - In Da Club" {
		t.Errorf("cleanLine() = %q", got)
	}
}

func TestOllama_SuggestMood(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"```json\n", `["Bonobo - Kerala", "Tycho - Awake"]`, "\n```"}}
	o := NewOllama(gen, "m")

	got, err := o.SuggestMood(context.Background(), "  rainy sunday  ")
	if err != nil {
		t.Fatalf("SuggestMood() error = %v", err)
	}
	want := []string{"Bonobo - Kerala", "Tycho - Awake"}
	if !slices.Equal(got, want) {
		t.Errorf("SuggestMood() = %v, want %v", got, want)
	}
	if !strings.Contains(gen.req.Prompt, `mood: "rainy sunday"`) {
		t.Errorf("prompt does not carry the mood: %q", gen.req.Prompt)
	}

	gen.req = nil
	if got, err := o.SuggestMood(context.Background(), " "); got != nil || err != nil {
		t.Errorf("SuggestMood(blank) = %v, %v", got, err)
	}
	if gen.req != nil {
		t.Error("blank mood should not reach the model")
	}
}

func TestLastfm_SuggestMood(t *testing.T) {
	l := NewLastfm(fakeSimilar{
		"tag:chill": {
			{Artist: "Bonobo", Name: "Kerala"},
			{Artist: "", Name: "Nameless"},
			{Artist: "Bonobo", Name: "Kerala"},
			{Artist: "Tycho", Name: "Awake"},
		},
		"tag:silence": nil,
	})

	got, err := l.SuggestMood(context.Background(), "Chill")
	if err != nil {
		t.Fatalf("SuggestMood() error = %v", err)
	}
	want := []string{"Bonobo - Kerala", "Tycho - Awake"}
	if !slices.Equal(got, want) {
		t.Errorf("SuggestMood() = %v, want %v", got, want)
	}
	if _, err := l.SuggestMood(context.Background(), "silence"); !errors.Is(err, ErrEmpty) {
		t.Errorf("SuggestMood() error = %v, want ErrEmpty", err)
	}
	if _, err := l.SuggestMood(context.Background(), "unknown"); err == nil {
		t.Error("SuggestMood() should surface lookup errors")
	}
}

func TestOllama_CoverPrompt(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"\"Neon rain over a midnight city\"\n"}}
	o := NewOllama(gen, "m")

	got, err := o.CoverPrompt(context.Background(), []string{"Daft Punk - Digital Love"})
	if err != nil {
		t.Fatalf("CoverPrompt() error = %v", err)
	}
	if got != "Neon rain over a midnight city" {
		t.Errorf("CoverPrompt() = %q", got)
	}
	if !strings.Contains(gen.req.Prompt, "[Daft Punk - Digital Love]") {
		t.Errorf("prompt does not carry the songs: %q", gen.req.Prompt)
	}
}

func TestImageURL(t *testing.T) {
	got := ImageURL("neon city/night")
	want := ImageBaseURL + "neon%20city%2Fnight?width=500&height=500&nologo=true"
	if got != want {
		t.Errorf("ImageURL() = %q, want %q", got, want)
	}
}

func TestCover(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("offline")
	tests := []struct {
		name    string
		p       CoverPrompter
		seeds   []string
		want    string
		wantErr error
	}{
		{"no tracks", nil, nil, ImageURL(emptyCoverPrompt), nil},
		{"no prompter", nil, []string{"A - 1"}, ImageURL(fallbackCoverPrompt), nil},
		{"prompted", NewOllama(&fakeGenerator{chunks: []string{"Blue waves"}}, "m"), []string{"A - 1"}, ImageURL("Blue waves"), nil},
		{"prompt fails", NewOllama(&fakeGenerator{err: boom}, "m"), []string{"A - 1"}, ImageURL(fallbackCoverPrompt), boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cover(ctx, tt.p, tt.seeds)
			if got != tt.want {
				t.Errorf("Cover() = %q, want %q", got, tt.want)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Cover() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
