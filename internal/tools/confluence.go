package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Confluence backs the confluence implementation over the Confluence Cloud
// REST API. base_url is the site root including /wiki.
type Confluence struct {
	client *http.Client
}

func NewConfluence(client *http.Client) *Confluence {
	if client == nil {
		client = NewHTTPClient()
	}
	return &Confluence{client: client}
}

type confluenceArgs struct {
	Action       string `mapstructure:"action"`
	Query        string `mapstructure:"query"`
	CQL          string `mapstructure:"cql"`
	SpaceKey     string `mapstructure:"space_key"`
	PageID       string `mapstructure:"page_id"`
	Title        string `mapstructure:"title"`
	Content      string `mapstructure:"content"`
	ParentPageID string `mapstructure:"parent_page_id"`
	BaseURL      string `mapstructure:"base_url"`
	Username     string `mapstructure:"username"`
	APIToken     string `mapstructure:"api_token"`
}

func (c *Confluence) Run(ctx context.Context, params map[string]any) (string, error) {
	var args confluenceArgs
	if err := decodeParams(params, &args); err != nil {
		return "", err
	}
	api := newAtlassianAPI("confluence", c.client, args.BaseURL, args.Username, args.APIToken)

	switch args.Action {
	case "search_pages":
		return c.searchPages(ctx, api, args)
	case "get_page":
		return c.getPage(ctx, api, args)
	case "create_page":
		return c.createPage(ctx, api, args)
	default:
		return "", fmt.Errorf("unknown action: %s", args.Action)
	}
}

// searchCQL builds the query for search_pages. An explicit cql wins over a
// free-text query.
func searchCQL(args confluenceArgs) (string, error) {
	if args.CQL != "" {
		return args.CQL, nil
	}
	if strings.TrimSpace(args.Query) == "" {
		return "", fmt.Errorf("query or cql is required to search pages")
	}
	cql := fmt.Sprintf("type = page AND text ~ %s", cqlQuote(args.Query))
	if args.SpaceKey != "" {
		cql = fmt.Sprintf("space = %s AND %s", cqlQuote(args.SpaceKey), cql)
	}
	return cql, nil
}

func cqlQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

type confluencePage struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Space struct {
		Key string `json:"key"`
	} `json:"space"`
	Body struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
}

func (c *Confluence) searchPages(ctx context.Context, api atlassianAPI, args confluenceArgs) (string, error) {
	cql, err := searchCQL(args)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("cql", cql)
	q.Set("limit", "10")
	q.Set("expand", "space")

	var found struct {
		Results []confluencePage `json:"results"`
	}
	if err := api.do(ctx, http.MethodGet, "/rest/api/content/search?"+q.Encode(), nil, &found); err != nil {
		return "", err
	}
	if len(found.Results) == 0 {
		return "No pages found.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d page(s):", len(found.Results))
	for _, p := range found.Results {
		fmt.Fprintf(&b, "\n%s [%s] %s", p.ID, p.Space.Key, p.Title)
	}
	return b.String(), nil
}

func (c *Confluence) getPage(ctx context.Context, api atlassianAPI, args confluenceArgs) (string, error) {
	if args.PageID == "" {
		return "", fmt.Errorf("page_id is required")
	}

	var p confluencePage
	path := "/rest/api/content/" + url.PathEscape(args.PageID) + "?expand=body.storage"
	if err := api.do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return "", err
	}
	text := htmlTagRe.ReplaceAllString(p.Body.Storage.Value, " ")
	text = strings.Join(strings.Fields(text), " ")
	return truncate([]byte(fmt.Sprintf("%s\n%s", p.Title, text))), nil
}

func (c *Confluence) createPage(ctx context.Context, api atlassianAPI, args confluenceArgs) (string, error) {
	if args.SpaceKey == "" || args.Title == "" {
		return "", fmt.Errorf("space_key and title are required to create a page")
	}

	body := map[string]any{
		"type":  "page",
		"title": args.Title,
		"space": map[string]string{"key": args.SpaceKey},
		"body": map[string]any{
			"storage": map[string]string{"value": args.Content, "representation": "storage"},
		},
	}
	if args.ParentPageID != "" {
		body["ancestors"] = []map[string]string{{"id": args.ParentPageID}}
	}

	var created confluencePage
	if err := api.do(ctx, http.MethodPost, "/rest/api/content", body, &created); err != nil {
		return "", err
	}
	return fmt.Sprintf("Created page %s: %s", created.ID, created.Title), nil
}
