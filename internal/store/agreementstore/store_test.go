package agreementstore

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrflow/internal/agreement"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "agreements.json"))
}

func TestUpsertHierarchy(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)

	require.NoError(t, s.UpsertAgreement(ctx, agreement.Agreement{ID: "cba-2026", Title: "CBA 2026"}))
	require.NoError(t, s.UpsertArticle(ctx, agreement.Article{AgreementID: "cba-2026", Number: 12, Title: "Vacations"}))
	require.NoError(t, s.UpsertClause(ctx, agreement.Clause{AgreementID: "cba-2026", ArticleNumber: 12, Number: 1, Text: "12 days"}))
	require.NoError(t, s.UpsertRule(ctx, agreement.Rule{
		AgreementID: "cba-2026", ArticleNumber: 12, ClauseNumber: 1,
		Type: "vacation_days", Config: json.RawMessage(`{"days":12}`),
	}))

	got, ok := s.GetAgreement(ctx, "cba-2026")
	require.True(t, ok)
	assert.Equal(t, "CBA 2026", got.Title)

	articles, err := s.ListArticles(ctx, "cba-2026")
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Vacations", articles[0].Title)

	rules, err := s.ListRules(ctx, "cba-2026")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "vacation_days", rules[0].Type)
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	require.NoError(t, s.UpsertAgreement(ctx, agreement.Agreement{ID: "a", Title: "First"}))
	require.NoError(t, s.UpsertAgreement(ctx, agreement.Agreement{ID: "a", Title: "Second"}))
	got, ok := s.GetAgreement(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "Second", got.Title)

	require.NoError(t, s.UpsertArticle(ctx, agreement.Article{AgreementID: "a", Number: 1, Title: "v1"}))
	require.NoError(t, s.UpsertArticle(ctx, agreement.Article{AgreementID: "a", Number: 1, Title: "v2"}))
	articles, err := s.ListArticles(ctx, "a")
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "v2", articles[0].Title)
}

func TestChildRequiresAgreement(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	err := s.UpsertArticle(ctx, agreement.Article{AgreementID: "missing", Number: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestArticlesSortedByNumber(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	require.NoError(t, s.UpsertAgreement(ctx, agreement.Agreement{ID: "a", Title: "A"}))
	require.NoError(t, s.UpsertArticle(ctx, agreement.Article{AgreementID: "a", Number: 13, Title: "Overtime"}))
	require.NoError(t, s.UpsertArticle(ctx, agreement.Article{AgreementID: "a", Number: 12, Title: "Vacations"}))
	articles, err := s.ListArticles(ctx, "a")
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, 12, articles[0].Number)
	assert.Equal(t, 13, articles[1].Number)
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "agreements.json")

	s := New(path)
	require.NoError(t, s.UpsertAgreement(ctx, agreement.Agreement{ID: "a", Title: "A"}))
	require.NoError(t, s.UpsertArticle(ctx, agreement.Article{AgreementID: "a", Number: 1, Title: "One"}))
	require.NoError(t, s.UpsertClause(ctx, agreement.Clause{AgreementID: "a", ArticleNumber: 1, Number: 1, Text: "t"}))

	reopened := New(path)
	_, ok := reopened.GetAgreement(ctx, "a")
	require.True(t, ok)
	clauses, err := reopened.ListClauses(ctx, "a")
	require.NoError(t, err)
	require.Len(t, clauses, 1)
}
