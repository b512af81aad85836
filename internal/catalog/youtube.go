package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/llehouerou/drift/internal/playlist"
)

const (
	youtubeBaseURL = "https://www.googleapis.com/youtube/v3"
	musicCategory  = "10"
	maxResults     = "20"

	// Retry configuration
	maxRetries   = 2
	initialDelay = time.Second
	maxDelay     = 8 * time.Second
)

// ErrNoAPIKey is returned when the YouTube provider has no key.
var ErrNoAPIKey = errors.New("youtube api key not configured")

// YouTube queries the YouTube Data API v3.
type YouTube struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	region     string
}

var (
	_ Searcher = (*YouTube)(nil)
	_ Trending = (*YouTube)(nil)
)

// NewYouTube creates a client. An empty region defaults to US.
func NewYouTube(apiKey, region string) *YouTube {
	if region == "" {
		region = "US"
	}
	return &YouTube{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    youtubeBaseURL,
		apiKey:     apiKey,
		region:     region,
	}
}

// FetchTrendingMusic returns the most popular music videos in the region.
func (y *YouTube) FetchTrendingMusic(ctx context.Context) ([]playlist.Track, error) {
	params := url.Values{}
	params.Set("chart", "mostPopular")
	params.Set("regionCode", y.region)
	params.Set("videoCategoryId", musicCategory)
	params.Set("part", "snippet,contentDetails")
	params.Set("maxResults", maxResults)

	var result videosResponse
	if err := y.get(ctx, "videos", params, &result); err != nil {
		return nil, fmt.Errorf("trending: %w", err)
	}

	tracks := make([]playlist.Track, 0, len(result.Items))
	for i := range result.Items {
		v := &result.Items[i]
		tracks = append(tracks, trackFromSnippet(v.ID, v.Snippet, ParseISODuration(v.ContentDetails.Duration)))
	}
	return tracks, nil
}

// SearchTracks searches music videos. Durations are filled in with a second
// request; if that fails the tracks keep a zero duration.
func (y *YouTube) SearchTracks(ctx context.Context, query string) ([]playlist.Track, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", query)
	params.Set("videoCategoryId", musicCategory)
	params.Set("maxResults", maxResults)

	var result searchResponse
	if err := y.get(ctx, "search", params, &result); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	tracks := make([]playlist.Track, 0, len(result.Items))
	ids := make([]string, 0, len(result.Items))
	for i := range result.Items {
		r := &result.Items[i]
		if r.ID.VideoID == "" {
			continue
		}
		tracks = append(tracks, trackFromSnippet(r.ID.VideoID, r.Snippet, 0))
		ids = append(ids, r.ID.VideoID)
	}
	if len(ids) == 0 {
		return tracks, nil
	}

	durations, err := y.durations(ctx, ids)
	if err == nil {
		for i := range tracks {
			tracks[i].Duration = durations[string(tracks[i].ID)]
		}
	}
	return tracks, nil
}

func (y *YouTube) durations(ctx context.Context, ids []string) (map[string]time.Duration, error) {
	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("id", strings.Join(ids, ","))

	var result videosResponse
	if err := y.get(ctx, "videos", params, &result); err != nil {
		return nil, err
	}
	out := make(map[string]time.Duration, len(result.Items))
	for i := range result.Items {
		out[result.Items[i].ID] = ParseISODuration(result.Items[i].ContentDetails.Duration)
	}
	return out, nil
}

func (y *YouTube) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if y.apiKey == "" {
		return ErrNoAPIKey
	}
	params.Set("key", y.apiKey)
	reqURL := fmt.Sprintf("%s/%s?%s", y.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.doRequestWithRetry(ctx, req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("YouTube API status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// doRequestWithRetry executes an HTTP request with exponential backoff retry.
// Retries on 5xx errors and network errors.
func (y *YouTube) doRequestWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	delay := initialDelay

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay = min(delay*2, maxDelay)
		}

		resp, err := y.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		// Success or client error (4xx) - don't retry
		if resp.StatusCode < 500 {
			return resp, nil
		}

		resp.Body.Close()
		lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries+1, lastErr)
}

func trackFromSnippet(id string, s snippet, d time.Duration) playlist.Track {
	cover := s.Thumbnails.High.URL
	if cover == "" {
		cover = s.Thumbnails.Medium.URL
	}
	if cover == "" {
		cover = s.Thumbnails.Default.URL
	}
	return playlist.Track{
		ID:       playlist.ID(id),
		Title:    html.UnescapeString(s.Title),
		Artist:   html.UnescapeString(strings.TrimSuffix(s.ChannelTitle, " - Topic")),
		Source:   watchURL(id),
		Cover:    cover,
		Duration: d,
	}
}

type thumbnail struct {
	URL string `json:"url"`
}

type snippet struct {
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	Thumbnails   struct {
		Default thumbnail `json:"default"`
		Medium  thumbnail `json:"medium"`
		High    thumbnail `json:"high"`
	} `json:"thumbnails"`
}

type videosResponse struct {
	Items []struct {
		ID             string  `json:"id"`
		Snippet        snippet `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}
