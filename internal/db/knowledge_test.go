package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "kb", "test.db"))
	require.NoError(t, err)
	require.NoError(t, d.Migrate())
	t.Cleanup(func() { d.Close() })
	return d
}

func TestSearchDocumentsScopedToCollection(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	_, err := d.AddDocument(ctx, "it", "Password reset", "To reset your password open the self-service portal.")
	require.NoError(t, err)
	_, err = d.AddDocument(ctx, "it", "VPN", "Install the VPN client before connecting remotely.")
	require.NoError(t, err)
	_, err = d.AddDocument(ctx, "hr", "Leave policy", "Request leave and password changes through HR.")
	require.NoError(t, err)

	docs, err := d.SearchDocuments(ctx, "it", "reset password", 5)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Password reset", docs[0].Title)
	assert.Equal(t, "it", docs[0].Collection)
	assert.Equal(t, 1.0, docs[0].Score)

	docs, err = d.SearchDocuments(ctx, "hr", "password", 5)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Leave policy", docs[0].Title)
}

func TestSearchDocumentsRanksAndNormalizes(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	_, err := d.AddDocument(ctx, "kb", "a", "printer printer printer jam")
	require.NoError(t, err)
	_, err = d.AddDocument(ctx, "kb", "b", "the printer is on floor two near the kitchen and the lifts")
	require.NoError(t, err)

	docs, err := d.SearchDocuments(ctx, "kb", "printer jam", 5)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].Title)
	assert.Equal(t, 1.0, docs[0].Score)
	assert.Equal(t, 0.0, docs[1].Score)
}

func TestSearchDocumentsEscapesSyntax(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	_, err := d.AddDocument(ctx, "kb", "quotes", `he said "hello" AND left`)
	require.NoError(t, err)

	docs, err := d.SearchDocuments(ctx, "kb", `"hello" AND (NEAR`, 5)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	docs, err = d.SearchDocuments(ctx, "kb", "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestAddDocumentRequiresCollection(t *testing.T) {
	d := openTestDB(t)
	_, err := d.AddDocument(context.Background(), "", "t", "c")
	assert.Error(t, err)
}
