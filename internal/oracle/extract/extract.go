// Package extract implements the document-side oracle: it sends uploaded
// agreement text to a language model and turns the structured response
// into a reviewable proposal.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"hrflow/internal/agreement"
	"hrflow/internal/jsonutil"
	"hrflow/internal/wizard"
)

var ErrEmptyResponse = errors.New("extract: model returned no content")

const extractionPrompt = `You are given the raw text of a collective bargaining agreement.
Extract its structure as JSON with this shape:
{"title": string,
 "articles": [{"number": int, "title": string, "body": string,
   "clauses": [{"number": int, "text": string,
     "rules": [{"type": string, "config": object}]}]}]}
Number articles and clauses exactly as written in the document.
Derive a rule only when a clause states a concrete, machine-checkable
obligation (vacation days, overtime rate, notice periods). Respond with
JSON only.`

const proposalCacheSize = 64

// Extractor is the import-variant oracle. Responses are cached by input
// hash so re-analyzing an unchanged document yields an identical proposal
// without a second model call.
type Extractor struct {
	llm    LLM
	cache  *lru.Cache[string, *wizard.Proposal]
	logger *zap.Logger
}

func New(llm LLM, logger *zap.Logger) (*Extractor, error) {
	if llm == nil {
		return nil, fmt.Errorf("extract: llm is required")
	}
	cache, err := lru.New[string, *wizard.Proposal](proposalCacheSize)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{llm: llm, cache: cache, logger: logger}, nil
}

// Propose runs extraction over the document text.
func (e *Extractor) Propose(ctx context.Context, docText string) (*wizard.Proposal, error) {
	if docText == "" {
		return nil, fmt.Errorf("extract: document text is empty")
	}
	key := cacheKey(docText)
	if cached, ok := e.cache.Get(key); ok {
		e.logger.Debug("extraction cache hit", zap.String("key", key))
		return cached, nil
	}

	raw, err := e.llm.GenerateJSON(ctx, extractionPrompt, map[string]string{"document": docText})
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}
	var doc agreement.ExtractedDocument
	if err := jsonutil.UnmarshalRaw(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}
	proposal, err := agreement.BuildProposal(doc)
	if err != nil {
		return nil, fmt.Errorf("build proposal: %w", err)
	}
	e.cache.Add(key, proposal)
	e.logger.Info("document extracted",
		zap.String("model", e.llm.Name()),
		zap.Int("articles", len(proposal.Items)),
		zap.Int("rules", proposal.Summary.Extras["rules"]))
	return proposal, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:12])
}
