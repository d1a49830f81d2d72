package tools

import (
	"context"
	"fmt"
	"strings"

	"agentplatform/internal/db"
)

type KnowledgeSearcher interface {
	SearchDocuments(ctx context.Context, collection, query string, limit int) ([]db.Document, error)
}

// Knowledge backs knowledge_lookup. The collection is a hidden parameter so
// each agent only ever searches the documents it was configured for.
type Knowledge struct {
	store KnowledgeSearcher
}

func NewKnowledge(store KnowledgeSearcher) *Knowledge {
	return &Knowledge{store: store}
}

func (k *Knowledge) Lookup(ctx context.Context, params map[string]any) (string, error) {
	var args struct {
		Query      string `mapstructure:"query"`
		Limit      int    `mapstructure:"limit"`
		Collection string `mapstructure:"collection"`
	}
	if err := decodeParams(params, &args); err != nil {
		return "", err
	}
	if k.store == nil {
		return "", fmt.Errorf("knowledge base is not configured")
	}
	if strings.TrimSpace(args.Query) == "" {
		return "", fmt.Errorf("query is required")
	}

	docs, err := k.store.SearchDocuments(ctx, args.Collection, args.Query, args.Limit)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "No matching documents.", nil
	}

	var b strings.Builder
	for i, d := range docs {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		fmt.Fprintf(&b, "%s (score %.2f)\n%s", d.Title, d.Score, d.Content)
	}
	return truncate([]byte(b.String())), nil
}
