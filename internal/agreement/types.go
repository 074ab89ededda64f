package agreement

import (
	"encoding/json"
	"fmt"
)

// Agreement is a collective bargaining agreement header row. Articles,
// clauses and rules hang off it by natural number keys.
type Agreement struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Article struct {
	AgreementID string `json:"agreement_id"`
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

type Clause struct {
	AgreementID   string `json:"agreement_id"`
	ArticleNumber int    `json:"article_number"`
	Number        int    `json:"number"`
	Text          string `json:"text"`
}

// Rule is a machine-readable obligation derived from a clause (vacation
// days, overtime rate, notice period). Config is the rule's opaque
// parameter payload.
type Rule struct {
	AgreementID   string          `json:"agreement_id"`
	ArticleNumber int             `json:"article_number"`
	ClauseNumber  int             `json:"clause_number"`
	Type          string          `json:"type"`
	Config        json.RawMessage `json:"config,omitempty"`
}

// Natural keys used in proposals. The composite article/clause numbering
// is what makes extracted items stable across re-analysis.

func ArticleKey(number int) string {
	return fmt.Sprintf("article:%d", number)
}

func ClauseKey(article, clause int) string {
	return fmt.Sprintf("clause:%d/%d", article, clause)
}

func RuleKey(article, clause int, ruleType string) string {
	return fmt.Sprintf("rule:%d/%d/%s", article, clause, ruleType)
}
