package agreementstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hrflow/internal/agreement"
)

type fileAgreement struct {
	Agreement agreement.Agreement `json:"agreement"`
	Articles  []agreement.Article `json:"articles,omitempty"`
	Clauses   []agreement.Clause  `json:"clauses,omitempty"`
	Rules     []agreement.Rule    `json:"rules,omitempty"`
}

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var rows []fileAgreement
		if err := json.Unmarshal(b, &rows); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := range rows {
			row := rows[i]
			id := strings.TrimSpace(row.Agreement.ID)
			if id == "" {
				continue
			}
			row.Agreement = normalizeAgreement(row.Agreement)
			s.byID[id] = &row
		}
	})
}

func (s *Store) saveFileLocked() {
	rows := make([]fileAgreement, 0, len(s.byID))
	for _, row := range s.byID {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Agreement.ID < rows[j].Agreement.ID
	})
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
	_ = os.WriteFile(s.path, b, 0o644)
}

func (s *Store) upsertAgreementFile(a agreement.Agreement) error {
	s.ensureLoadedFile()
	n := normalizeAgreement(a)
	if n.ID == "" {
		return fmt.Errorf("agreement id is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[n.ID]
	if !ok {
		row = &fileAgreement{}
		s.byID[n.ID] = row
	}
	row.Agreement = n
	s.saveFileLocked()
	return nil
}

func (s *Store) upsertArticleFile(a agreement.Article) error {
	s.ensureLoadedFile()
	n := normalizeArticle(a)
	if n.AgreementID == "" {
		return fmt.Errorf("article has no agreement id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[n.AgreementID]
	if !ok {
		return fmt.Errorf("agreement %s not found", n.AgreementID)
	}
	for i := range row.Articles {
		if row.Articles[i].Number == n.Number {
			row.Articles[i] = n
			s.saveFileLocked()
			return nil
		}
	}
	row.Articles = append(row.Articles, n)
	s.saveFileLocked()
	return nil
}

func (s *Store) upsertClauseFile(c agreement.Clause) error {
	s.ensureLoadedFile()
	n := normalizeClause(c)
	if n.AgreementID == "" {
		return fmt.Errorf("clause has no agreement id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[n.AgreementID]
	if !ok {
		return fmt.Errorf("agreement %s not found", n.AgreementID)
	}
	for i := range row.Clauses {
		if row.Clauses[i].ArticleNumber == n.ArticleNumber && row.Clauses[i].Number == n.Number {
			row.Clauses[i] = n
			s.saveFileLocked()
			return nil
		}
	}
	row.Clauses = append(row.Clauses, n)
	s.saveFileLocked()
	return nil
}

func (s *Store) upsertRuleFile(r agreement.Rule) error {
	s.ensureLoadedFile()
	n := normalizeRule(r)
	if n.AgreementID == "" {
		return fmt.Errorf("rule has no agreement id")
	}
	if n.Type == "" {
		return fmt.Errorf("rule has no type")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[n.AgreementID]
	if !ok {
		return fmt.Errorf("agreement %s not found", n.AgreementID)
	}
	for i := range row.Rules {
		existing := row.Rules[i]
		if existing.ArticleNumber == n.ArticleNumber &&
			existing.ClauseNumber == n.ClauseNumber &&
			existing.Type == n.Type {
			row.Rules[i] = n
			s.saveFileLocked()
			return nil
		}
	}
	row.Rules = append(row.Rules, n)
	s.saveFileLocked()
	return nil
}

func (s *Store) getAgreementFile(id string) (agreement.Agreement, bool) {
	s.ensureLoadedFile()
	id = strings.TrimSpace(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.byID[id]
	if !ok {
		return agreement.Agreement{}, false
	}
	return row.Agreement, true
}

func (s *Store) listArticlesFile(agreementID string) ([]agreement.Article, error) {
	s.ensureLoadedFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.byID[strings.TrimSpace(agreementID)]
	if !ok {
		return nil, nil
	}
	out := make([]agreement.Article, len(row.Articles))
	copy(out, row.Articles)
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *Store) listClausesFile(agreementID string) ([]agreement.Clause, error) {
	s.ensureLoadedFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.byID[strings.TrimSpace(agreementID)]
	if !ok {
		return nil, nil
	}
	out := make([]agreement.Clause, len(row.Clauses))
	copy(out, row.Clauses)
	sort.Slice(out, func(i, j int) bool {
		if out[i].ArticleNumber != out[j].ArticleNumber {
			return out[i].ArticleNumber < out[j].ArticleNumber
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

func (s *Store) listRulesFile(agreementID string) ([]agreement.Rule, error) {
	s.ensureLoadedFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.byID[strings.TrimSpace(agreementID)]
	if !ok {
		return nil, nil
	}
	out := make([]agreement.Rule, len(row.Rules))
	copy(out, row.Rules)
	sort.Slice(out, func(i, j int) bool {
		if out[i].ArticleNumber != out[j].ArticleNumber {
			return out[i].ArticleNumber < out[j].ArticleNumber
		}
		if out[i].ClauseNumber != out[j].ClauseNumber {
			return out[i].ClauseNumber < out[j].ClauseNumber
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}
