package agreement

import (
	"encoding/json"
	"fmt"
	"strings"

	"hrflow/internal/wizard"
)

// ExtractedDocument is the structure the extraction oracle returns for an
// uploaded agreement: articles with nested clauses and clause-derived
// rules.
type ExtractedDocument struct {
	Title    string             `json:"title"`
	Articles []ExtractedArticle `json:"articles"`
}

type ExtractedArticle struct {
	Number  int               `json:"number"`
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Clauses []ExtractedClause `json:"clauses,omitempty"`
}

type ExtractedClause struct {
	Number int             `json:"number"`
	Text   string          `json:"text"`
	Rules  []ExtractedRule `json:"rules,omitempty"`
}

type ExtractedRule struct {
	Type   string          `json:"type"`
	Config json.RawMessage `json:"config,omitempty"`
}

// BuildProposal turns an extracted document into a reviewable proposal.
// Articles are the selectable items; clauses and rules ride along as
// children and are imported with their article unconditionally.
func BuildProposal(doc ExtractedDocument) (*wizard.Proposal, error) {
	items := make([]wizard.Item, 0, len(doc.Articles))
	clauseCount := 0
	ruleCount := 0
	for _, art := range doc.Articles {
		if art.Number <= 0 {
			return nil, fmt.Errorf("article %q has no number", art.Title)
		}
		payload, err := json.Marshal(Article{
			Number: art.Number,
			Title:  art.Title,
			Body:   art.Body,
		})
		if err != nil {
			return nil, err
		}
		item := wizard.Item{
			Key:     ArticleKey(art.Number),
			Label:   articleLabel(art),
			Group:   "articles",
			Tag:     wizard.TagNew,
			Payload: payload,
		}
		for _, cl := range art.Clauses {
			clauseCount++
			clausePayload, err := json.Marshal(Clause{
				ArticleNumber: art.Number,
				Number:        cl.Number,
				Text:          cl.Text,
			})
			if err != nil {
				return nil, err
			}
			child := wizard.Item{
				Key:     ClauseKey(art.Number, cl.Number),
				Label:   fmt.Sprintf("Clause %d.%d", art.Number, cl.Number),
				Payload: clausePayload,
			}
			for _, rule := range cl.Rules {
				ruleCount++
				rulePayload, err := json.Marshal(Rule{
					ArticleNumber: art.Number,
					ClauseNumber:  cl.Number,
					Type:          rule.Type,
					Config:        rule.Config,
				})
				if err != nil {
					return nil, err
				}
				child.Children = append(child.Children, wizard.Item{
					Key:     RuleKey(art.Number, cl.Number, rule.Type),
					Label:   fmt.Sprintf("Rule %s (%d.%d)", rule.Type, art.Number, cl.Number),
					Payload: rulePayload,
				})
			}
			item.Children = append(item.Children, child)
		}
		items = append(items, item)
	}
	proposal, err := wizard.NewProposal(items)
	if err != nil {
		return nil, err
	}
	proposal.SetExtra("clauses", clauseCount)
	proposal.SetExtra("rules", ruleCount)
	return proposal, nil
}

func articleLabel(art ExtractedArticle) string {
	title := strings.TrimSpace(art.Title)
	if title == "" {
		return fmt.Sprintf("Article %d", art.Number)
	}
	return fmt.Sprintf("Article %d - %s", art.Number, title)
}
