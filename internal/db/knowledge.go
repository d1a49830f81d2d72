package db

import (
	"context"
	"fmt"
	"strings"
)

// Document is a knowledge base entry returned by search. Score is the BM25
// rank normalized to [0, 1] within one result set.
type Document struct {
	ID         int64
	Collection string
	Title      string
	Content    string
	Score      float64
}

func (d *DB) AddDocument(ctx context.Context, collection, title, content string) (int64, error) {
	if collection == "" {
		return 0, fmt.Errorf("collection is required")
	}
	res, err := d.conn.ExecContext(ctx,
		`INSERT INTO documents (collection, title, content) VALUES (?, ?, ?)`,
		collection, title, content)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	return res.LastInsertId()
}

// SearchDocuments runs a BM25-ranked full text search scoped to collection.
func (d *DB) SearchDocuments(ctx context.Context, collection, query string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 5
	}
	match := escapeFTS5Query(query)
	if match == "" {
		return nil, nil
	}

	const q = `
		SELECT d.id, d.collection, d.title, d.content, bm25(documents_fts) AS rank
		FROM documents_fts f
		JOIN documents d ON d.id = f.rowid
		WHERE documents_fts MATCH ?
		  AND d.collection = ?
		ORDER BY rank
		LIMIT ?
	`

	rows, err := d.conn.QueryContext(ctx, q, match, collection, limit)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	var ranks []float64
	for rows.Next() {
		var doc Document
		var rank float64
		if err := rows.Scan(&doc.ID, &doc.Collection, &doc.Title, &doc.Content, &rank); err != nil {
			return nil, err
		}
		// bm25 is negative; more negative is a better match.
		docs = append(docs, doc)
		ranks = append(ranks, -rank)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	normalize(docs, ranks)
	return docs, nil
}

func normalize(docs []Document, ranks []float64) {
	if len(ranks) == 0 {
		return
	}
	lo, hi := ranks[0], ranks[0]
	for _, r := range ranks {
		lo = min(lo, r)
		hi = max(hi, r)
	}
	span := hi - lo
	for i := range docs {
		if span > 0 {
			docs[i].Score = (ranks[i] - lo) / span
		} else {
			docs[i].Score = 1
		}
	}
}

// escapeFTS5Query quotes each term so user text cannot inject FTS5 syntax.
// Terms are OR-ed; BM25 ranks documents matching more of them higher.
func escapeFTS5Query(query string) string {
	terms := strings.Fields(query)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " OR ")
}

// CollectionStat is one row of Collections.
type CollectionStat struct {
	Name      string
	Documents int
}

// Collections lists every collection with its document count, by name.
func (d *DB) Collections(ctx context.Context) ([]CollectionStat, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT collection, COUNT(*) FROM documents GROUP BY collection ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var out []CollectionStat
	for rows.Next() {
		var c CollectionStat
		if err := rows.Scan(&c.Name, &c.Documents); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
