package agreementstore

import (
	"context"
	"fmt"
	"strings"

	"hrflow/internal/agreement"
)

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS agreements (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS agreement_articles (
  agreement_id TEXT NOT NULL REFERENCES agreements (id),
  number INTEGER NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  body TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (agreement_id, number)
);

CREATE TABLE IF NOT EXISTS agreement_clauses (
  agreement_id TEXT NOT NULL,
  article_number INTEGER NOT NULL,
  number INTEGER NOT NULL,
  text TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (agreement_id, article_number, number),
  FOREIGN KEY (agreement_id, article_number)
    REFERENCES agreement_articles (agreement_id, number)
);

CREATE TABLE IF NOT EXISTS agreement_rules (
  agreement_id TEXT NOT NULL,
  article_number INTEGER NOT NULL,
  clause_number INTEGER NOT NULL,
  type TEXT NOT NULL,
  config JSONB NOT NULL DEFAULT '{}',
  PRIMARY KEY (agreement_id, article_number, clause_number, type),
  FOREIGN KEY (agreement_id, article_number, clause_number)
    REFERENCES agreement_clauses (agreement_id, article_number, number)
);
`)
	})
	return s.schemaErr
}

func (s *Store) upsertAgreementDB(ctx context.Context, a agreement.Agreement) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	n := normalizeAgreement(a)
	if n.ID == "" {
		return fmt.Errorf("agreement id is empty")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO agreements (id, title) VALUES ($1,$2)
ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title`, n.ID, n.Title)
	return err
}

func (s *Store) upsertArticleDB(ctx context.Context, a agreement.Article) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	n := normalizeArticle(a)
	if n.AgreementID == "" {
		return fmt.Errorf("article has no agreement id")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO agreement_articles (agreement_id, number, title, body)
VALUES ($1,$2,$3,$4)
ON CONFLICT (agreement_id, number)
DO UPDATE SET title=EXCLUDED.title, body=EXCLUDED.body`,
		n.AgreementID, n.Number, n.Title, n.Body)
	return err
}

func (s *Store) upsertClauseDB(ctx context.Context, c agreement.Clause) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	n := normalizeClause(c)
	if n.AgreementID == "" {
		return fmt.Errorf("clause has no agreement id")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO agreement_clauses (agreement_id, article_number, number, text)
VALUES ($1,$2,$3,$4)
ON CONFLICT (agreement_id, article_number, number)
DO UPDATE SET text=EXCLUDED.text`,
		n.AgreementID, n.ArticleNumber, n.Number, n.Text)
	return err
}

func (s *Store) upsertRuleDB(ctx context.Context, r agreement.Rule) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	n := normalizeRule(r)
	if n.AgreementID == "" {
		return fmt.Errorf("rule has no agreement id")
	}
	if n.Type == "" {
		return fmt.Errorf("rule has no type")
	}
	config := []byte(n.Config)
	if len(config) == 0 {
		config = []byte("{}")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO agreement_rules (agreement_id, article_number, clause_number, type, config)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (agreement_id, article_number, clause_number, type)
DO UPDATE SET config=EXCLUDED.config`,
		n.AgreementID, n.ArticleNumber, n.ClauseNumber, n.Type, config)
	return err
}

func (s *Store) getAgreementDB(ctx context.Context, id string) (agreement.Agreement, bool) {
	if err := s.ensureSchema(); err != nil {
		return agreement.Agreement{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return agreement.Agreement{}, false
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, title FROM agreements WHERE id = $1`, id)
	var a agreement.Agreement
	if err := row.Scan(&a.ID, &a.Title); err != nil {
		return agreement.Agreement{}, false
	}
	return normalizeAgreement(a), true
}

func (s *Store) listArticlesDB(ctx context.Context, agreementID string) ([]agreement.Article, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT agreement_id, number, title, body
FROM agreement_articles WHERE agreement_id = $1 ORDER BY number`, strings.TrimSpace(agreementID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []agreement.Article
	for rows.Next() {
		var a agreement.Article
		if err := rows.Scan(&a.AgreementID, &a.Number, &a.Title, &a.Body); err != nil {
			return nil, err
		}
		out = append(out, normalizeArticle(a))
	}
	return out, rows.Err()
}

func (s *Store) listClausesDB(ctx context.Context, agreementID string) ([]agreement.Clause, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT agreement_id, article_number, number, text
FROM agreement_clauses WHERE agreement_id = $1 ORDER BY article_number, number`, strings.TrimSpace(agreementID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []agreement.Clause
	for rows.Next() {
		var c agreement.Clause
		if err := rows.Scan(&c.AgreementID, &c.ArticleNumber, &c.Number, &c.Text); err != nil {
			return nil, err
		}
		out = append(out, normalizeClause(c))
	}
	return out, rows.Err()
}

func (s *Store) listRulesDB(ctx context.Context, agreementID string) ([]agreement.Rule, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT agreement_id, article_number, clause_number, type, config
FROM agreement_rules WHERE agreement_id = $1 ORDER BY article_number, clause_number, type`, strings.TrimSpace(agreementID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []agreement.Rule
	for rows.Next() {
		var r agreement.Rule
		var config []byte
		if err := rows.Scan(&r.AgreementID, &r.ArticleNumber, &r.ClauseNumber, &r.Type, &config); err != nil {
			return nil, err
		}
		r.Config = config
		out = append(out, normalizeRule(r))
	}
	return out, rows.Err()
}
