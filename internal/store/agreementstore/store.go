// Package agreementstore persists imported agreement structures:
// agreement headers, their articles, clauses and derived rules. Postgres
// backs deployments; a JSON file backs local runs and tests.
package agreementstore

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"

	"hrflow/internal/agreement"
)

type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	byID     map[string]*fileAgreement

	schemaOnce sync.Once
	schemaErr  error
}

func New(path string) *Store {
	return &Store{
		path: path,
		byID: make(map[string]*fileAgreement),
	}
}

func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) UpsertAgreement(ctx context.Context, a agreement.Agreement) error {
	if s == nil {
		return sql.ErrConnDone
	}
	if s.db != nil {
		return s.upsertAgreementDB(ctx, a)
	}
	return s.upsertAgreementFile(a)
}

func (s *Store) UpsertArticle(ctx context.Context, a agreement.Article) error {
	if s == nil {
		return sql.ErrConnDone
	}
	if s.db != nil {
		return s.upsertArticleDB(ctx, a)
	}
	return s.upsertArticleFile(a)
}

func (s *Store) UpsertClause(ctx context.Context, c agreement.Clause) error {
	if s == nil {
		return sql.ErrConnDone
	}
	if s.db != nil {
		return s.upsertClauseDB(ctx, c)
	}
	return s.upsertClauseFile(c)
}

func (s *Store) UpsertRule(ctx context.Context, r agreement.Rule) error {
	if s == nil {
		return sql.ErrConnDone
	}
	if s.db != nil {
		return s.upsertRuleDB(ctx, r)
	}
	return s.upsertRuleFile(r)
}

func (s *Store) GetAgreement(ctx context.Context, id string) (agreement.Agreement, bool) {
	if s == nil {
		return agreement.Agreement{}, false
	}
	if s.db != nil {
		return s.getAgreementDB(ctx, id)
	}
	return s.getAgreementFile(id)
}

func (s *Store) ListArticles(ctx context.Context, agreementID string) ([]agreement.Article, error) {
	if s == nil {
		return nil, nil
	}
	if s.db != nil {
		return s.listArticlesDB(ctx, agreementID)
	}
	return s.listArticlesFile(agreementID)
}

func (s *Store) ListClauses(ctx context.Context, agreementID string) ([]agreement.Clause, error) {
	if s == nil {
		return nil, nil
	}
	if s.db != nil {
		return s.listClausesDB(ctx, agreementID)
	}
	return s.listClausesFile(agreementID)
}

func (s *Store) ListRules(ctx context.Context, agreementID string) ([]agreement.Rule, error) {
	if s == nil {
		return nil, nil
	}
	if s.db != nil {
		return s.listRulesDB(ctx, agreementID)
	}
	return s.listRulesFile(agreementID)
}
