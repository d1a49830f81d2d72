package tools

import (
	"net/http"
	"time"
)

// Implementation names of the built-in tools.
const (
	ImplWebSearch       = "web_search"
	ImplWebFetch        = "web_fetch"
	ImplKnowledgeLookup = "knowledge_lookup"
	ImplJira            = "jira"
	ImplConfluence      = "confluence"
	ImplCurrentTime     = "current_time"
)

// Builtins holds the dependencies of the built-in implementations.
// HTTPClient serves the integrations whose hosts come from configuration;
// WebClient serves web_search and web_fetch, which take model-chosen URLs.
type Builtins struct {
	HTTPClient *http.Client
	WebClient  *http.Client
	Knowledge  KnowledgeSearcher
	Now        func() time.Time
}

// Funcs returns the built-in implementations keyed by implementation name.
func (b Builtins) Funcs() map[string]Func {
	client := b.HTTPClient
	if client == nil {
		client = NewHTTPClient()
	}
	web := NewWeb(b.WebClient)
	return map[string]Func{
		ImplWebSearch:       web.Search,
		ImplWebFetch:        web.Fetch,
		ImplKnowledgeLookup: NewKnowledge(b.Knowledge).Lookup,
		ImplJira:            NewJira(client).Run,
		ImplConfluence:      NewConfluence(client).Run,
		ImplCurrentTime:     NewCurrentTime(b.Now).Run,
	}
}

// DefaultSpecs is the catalog used when no catalog file is configured.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			ID:             "web_search",
			Name:           "Web search",
			Description:    "Search the web. Returns titles, URLs and snippets of the top results.",
			Implementation: ImplWebSearch,
			Parameters: map[string]ParamSpec{
				"query":   {Type: TypeString, Description: "Search query", Required: true},
				"count":   {Type: TypeInteger, Description: "Number of results (1-20)", Default: 5},
				"api_key": {Type: TypeString, Description: "Brave Search API key", Required: true, IsCredential: true},
			},
			RateLimit: 60,
		},
		{
			ID:             "web_fetch",
			Name:           "Fetch URL",
			Description:    "Fetch a web page and return its text content.",
			Implementation: ImplWebFetch,
			Parameters: map[string]ParamSpec{
				"url": {Type: TypeString, Description: "Absolute http(s) URL", Required: true},
			},
		},
		{
			ID:             "knowledge_lookup",
			Name:           "Knowledge base",
			Description:    "Search the internal knowledge base for documents relevant to a question.",
			Implementation: ImplKnowledgeLookup,
			Parameters: map[string]ParamSpec{
				"query":      {Type: TypeString, Description: "What to look for", Required: true},
				"limit":      {Type: TypeInteger, Description: "Maximum documents to return", Default: 5},
				"collection": {Type: TypeString, Description: "Document collection", Hidden: true, Default: "default"},
			},
		},
		{
			ID:             "jira",
			Name:           "Jira",
			Description:    "Create, search and read Jira issues.",
			Implementation: ImplJira,
			Parameters: map[string]ParamSpec{
				"action": {
					Type:        TypeString,
					Description: "Operation to perform",
					Required:    true,
					Enum:        []any{"create_issue", "search_issues", "get_issue"},
				},
				"project":     {Type: TypeString, Description: "Project key, for create_issue"},
				"summary":     {Type: TypeString, Description: "Issue title, for create_issue"},
				"description": {Type: TypeString, Description: "Issue body, for create_issue"},
				"issue_type":  {Type: TypeString, Description: "Issue type, for create_issue", Default: "Task"},
				"jql":         {Type: TypeString, Description: "JQL query, for search_issues"},
				"issue_key":   {Type: TypeString, Description: "Issue key such as IT-42, for get_issue"},
				"base_url":    {Type: TypeString, Description: "Jira site URL", Required: true, Hidden: true},
				"username":    {Type: TypeString, Description: "Jira account email", Required: true, IsCredential: true},
				"api_token":   {Type: TypeString, Description: "Jira API token", Required: true, IsCredential: true},
			},
			RateLimit: 30,
		},
		{
			ID:             "confluence",
			Name:           "Confluence",
			Description:    "Search, read and create Confluence pages.",
			Implementation: ImplConfluence,
			Parameters: map[string]ParamSpec{
				"action": {
					Type:        TypeString,
					Description: "Operation to perform",
					Required:    true,
					Enum:        []any{"search_pages", "get_page", "create_page"},
				},
				"query":          {Type: TypeString, Description: "Free-text search, for search_pages"},
				"cql":            {Type: TypeString, Description: "CQL query, for search_pages; overrides query"},
				"space_key":      {Type: TypeString, Description: "Space key, to scope a search or for create_page"},
				"page_id":        {Type: TypeString, Description: "Page id, for get_page"},
				"title":          {Type: TypeString, Description: "Page title, for create_page"},
				"content":        {Type: TypeString, Description: "Page body in storage format, for create_page"},
				"parent_page_id": {Type: TypeString, Description: "Parent page id, for create_page"},
				"base_url":       {Type: TypeString, Description: "Confluence site URL including /wiki", Required: true, Hidden: true},
				"username":       {Type: TypeString, Description: "Atlassian account email", Required: true, IsCredential: true},
				"api_token":      {Type: TypeString, Description: "Atlassian API token", Required: true, IsCredential: true},
			},
			RateLimit: 30,
		},
		{
			ID:             "current_time",
			Name:           "Current time",
			Description:    "Get the current date and time in a time zone.",
			Implementation: ImplCurrentTime,
			Parameters: map[string]ParamSpec{
				"timezone": {Type: TypeString, Description: "IANA time zone such as Europe/Berlin", Default: "UTC"},
			},
		},
	}
}

// NewDefaultCatalog registers specs (DefaultSpecs when nil) against the
// built-ins and seals the catalog.
func NewDefaultCatalog(specs []Spec, b Builtins) (*Catalog, error) {
	if specs == nil {
		specs = DefaultSpecs()
	}
	c := NewCatalog()
	if err := RegisterAll(c, specs, b.Funcs()); err != nil {
		return nil, err
	}
	c.Seal()
	return c, nil
}
