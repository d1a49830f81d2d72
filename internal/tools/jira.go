package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Jira backs the jira implementation over the Jira REST API v2.
type Jira struct {
	client *http.Client
}

func NewJira(client *http.Client) *Jira {
	if client == nil {
		client = NewHTTPClient()
	}
	return &Jira{client: client}
}

type jiraArgs struct {
	Action      string `mapstructure:"action"`
	Project     string `mapstructure:"project"`
	Summary     string `mapstructure:"summary"`
	Description string `mapstructure:"description"`
	IssueType   string `mapstructure:"issue_type"`
	JQL         string `mapstructure:"jql"`
	IssueKey    string `mapstructure:"issue_key"`
	BaseURL     string `mapstructure:"base_url"`
	Username    string `mapstructure:"username"`
	APIToken    string `mapstructure:"api_token"`
}

func (j *Jira) Run(ctx context.Context, params map[string]any) (string, error) {
	var args jiraArgs
	if err := decodeParams(params, &args); err != nil {
		return "", err
	}
	api := newAtlassianAPI("jira", j.client, args.BaseURL, args.Username, args.APIToken)

	switch args.Action {
	case "create_issue":
		return j.createIssue(ctx, api, args)
	case "search_issues":
		return j.searchIssues(ctx, api, args)
	case "get_issue":
		return j.getIssue(ctx, api, args)
	default:
		return "", fmt.Errorf("unknown action: %s", args.Action)
	}
}

func (j *Jira) createIssue(ctx context.Context, api atlassianAPI, args jiraArgs) (string, error) {
	if args.Project == "" || args.Summary == "" {
		return "", fmt.Errorf("project and summary are required to create an issue")
	}
	if args.IssueType == "" {
		args.IssueType = "Task"
	}

	body := map[string]any{
		"fields": map[string]any{
			"project":     map[string]string{"key": args.Project},
			"summary":     args.Summary,
			"description": args.Description,
			"issuetype":   map[string]string{"name": args.IssueType},
		},
	}
	var created struct {
		Key string `json:"key"`
	}
	if err := api.do(ctx, http.MethodPost, "/rest/api/2/issue", body, &created); err != nil {
		return "", err
	}
	return fmt.Sprintf("Created %s: %s", created.Key, args.Summary), nil
}

func (j *Jira) searchIssues(ctx context.Context, api atlassianAPI, args jiraArgs) (string, error) {
	if args.JQL == "" {
		return "", fmt.Errorf("jql is required to search issues")
	}

	q := url.Values{}
	q.Set("jql", args.JQL)
	q.Set("maxResults", "10")
	q.Set("fields", "summary,status")

	var found struct {
		Total  int         `json:"total"`
		Issues []jiraIssue `json:"issues"`
	}
	if err := api.do(ctx, http.MethodGet, "/rest/api/2/search?"+q.Encode(), nil, &found); err != nil {
		return "", err
	}
	if len(found.Issues) == 0 {
		return "No issues found.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d issue(s):", found.Total)
	for _, is := range found.Issues {
		fmt.Fprintf(&b, "\n%s [%s] %s", is.Key, is.Fields.Status.Name, is.Fields.Summary)
	}
	return b.String(), nil
}

func (j *Jira) getIssue(ctx context.Context, api atlassianAPI, args jiraArgs) (string, error) {
	if args.IssueKey == "" {
		return "", fmt.Errorf("issue_key is required")
	}

	var is jiraIssue
	if err := api.do(ctx, http.MethodGet, "/rest/api/2/issue/"+url.PathEscape(args.IssueKey), nil, &is); err != nil {
		return "", err
	}
	return truncate([]byte(fmt.Sprintf("%s [%s] %s\n%s", is.Key, is.Fields.Status.Name, is.Fields.Summary, is.Fields.Description))), nil
}

type jiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary     string `json:"summary"`
		Description string `json:"description"`
		Status      struct {
			Name string `json:"name"`
		} `json:"status"`
	} `json:"fields"`
}
