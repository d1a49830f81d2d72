package tools

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	bravesearch "github.com/cnosuke/go-brave-search"
)

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// Web backs the web_search and web_fetch implementations. Both share one
// client; by default it refuses non-public destinations.
type Web struct {
	client    *http.Client
	searchURL string
}

func NewWeb(client *http.Client) *Web {
	if client == nil {
		client = NewPublicHTTPClient()
	}
	return &Web{client: client, searchURL: bravesearch.BaseURL}
}

func (w *Web) Search(ctx context.Context, params map[string]any) (string, error) {
	var args struct {
		Query  string `mapstructure:"query"`
		Count  int    `mapstructure:"count"`
		APIKey string `mapstructure:"api_key"`
	}
	if err := decodeParams(params, &args); err != nil {
		return "", err
	}
	if args.Query == "" {
		return "", fmt.Errorf("query is required")
	}
	if args.APIKey == "" {
		return "", fmt.Errorf("search api key is not configured")
	}
	if args.Count <= 0 {
		args.Count = 5
	}
	if args.Count > 20 {
		args.Count = 20
	}

	slog.Debug("web: searching", "query", args.Query, "count", args.Count)

	brave, err := bravesearch.NewClient(args.APIKey,
		bravesearch.WithHTTPClient(w.client),
		bravesearch.WithBaseURL(w.searchURL),
	)
	if err != nil {
		return "", fmt.Errorf("brave client: %w", err)
	}
	resp, err := brave.WebSearch(ctx, args.Query, &bravesearch.WebSearchParams{
		Count: args.Count,
	})
	if err != nil {
		return "", fmt.Errorf("brave search: %w", err)
	}

	results := resp.GetWebResults()
	if len(results) == 0 {
		return "No results found.", nil
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		fmt.Fprintf(&b, "%s\n%s\n%s", r.Title, r.URL, r.Description)
	}

	slog.Debug("web: search done", "query", args.Query, "results", len(results))
	return truncate([]byte(b.String())), nil
}

func (w *Web) Fetch(ctx context.Context, params map[string]any) (string, error) {
	var args struct {
		URL string `mapstructure:"url"`
	}
	if err := decodeParams(params, &args); err != nil {
		return "", err
	}
	if args.URL == "" {
		return "", fmt.Errorf("url is required")
	}
	if !strings.HasPrefix(args.URL, "http://") && !strings.HasPrefix(args.URL, "https://") {
		return "", fmt.Errorf("only http and https urls are supported")
	}

	slog.Debug("web: fetching", "url", args.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "agentd/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %s", resp.Status)
	}

	const maxBody = 100 * 1024
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	text := htmlTagRe.ReplaceAllString(string(body), "")
	text = strings.Join(strings.Fields(text), " ")

	slog.Debug("web: fetch done", "url", args.URL, "bytes", len(text))
	return truncate([]byte(text)), nil
}
