package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// atlassianAPI is a basic-auth JSON client for one Atlassian Cloud site.
// Errors never carry the site URL: it is a hidden parameter and tool
// output goes back to the model.
type atlassianAPI struct {
	service  string
	client   *http.Client
	baseURL  string
	username string
	token    string
}

func newAtlassianAPI(service string, client *http.Client, baseURL, username, token string) atlassianAPI {
	return atlassianAPI{
		service:  service,
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		token:    token,
	}
}

func (a atlassianAPI) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		slog.Debug("atlassian: bad request", "service", a.service, "err", err)
		return fmt.Errorf("%s site url is invalid", a.service)
	}
	req.SetBasicAuth(a.username, a.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		slog.Debug("atlassian: transport error", "service", a.service, "err", err)
		return a.transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return a.transportError(err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s returned HTTP %d", a.service, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", a.service, err)
	}
	return nil
}

// transportError keeps context errors matchable and drops everything else,
// since url.Error and net.OpError both name the host.
func (a atlassianAPI) transportError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s request timed out: %w", a.service, context.DeadlineExceeded)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s request: %w", a.service, context.Canceled)
	}
	return fmt.Errorf("%s is unreachable", a.service)
}
