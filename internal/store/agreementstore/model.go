package agreementstore

import (
	"strings"

	"hrflow/internal/agreement"
)

func normalizeAgreement(a agreement.Agreement) agreement.Agreement {
	a.ID = strings.TrimSpace(a.ID)
	a.Title = strings.TrimSpace(a.Title)
	return a
}

func normalizeArticle(a agreement.Article) agreement.Article {
	a.AgreementID = strings.TrimSpace(a.AgreementID)
	a.Title = strings.TrimSpace(a.Title)
	return a
}

func normalizeClause(c agreement.Clause) agreement.Clause {
	c.AgreementID = strings.TrimSpace(c.AgreementID)
	c.Text = strings.TrimSpace(c.Text)
	return c
}

func normalizeRule(r agreement.Rule) agreement.Rule {
	r.AgreementID = strings.TrimSpace(r.AgreementID)
	r.Type = strings.TrimSpace(r.Type)
	return r
}
