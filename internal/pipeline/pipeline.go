// Package pipeline implements the unified classification flow: template
// cache → persisted classification → rule engine → LLM fallback. It
// dispatches a batch of messages across a bounded worker pool and
// reassembles results in input order so callers can correlate them
// back to the original messages.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ignite/fleetwatch/internal/classifier/llm"
	"github.com/ignite/fleetwatch/internal/classifier/rules"
	"github.com/ignite/fleetwatch/internal/domain"
	"github.com/ignite/fleetwatch/internal/fingerprint"
	"github.com/ignite/fleetwatch/internal/repository"
	"github.com/ignite/fleetwatch/internal/templatecache"
)

// DefaultMaxConcurrent bounds how many messages are classified in
// parallel per batch.
const DefaultMaxConcurrent = 5

// Message is the minimal input the pipeline needs for one message.
type Message struct {
	ID      string
	Subject string
	Sender  string
	Body    string
}

// Pipeline wires the template cache, classification repository, and LLM
// classifier together. A nil LLM classifier disables the AI tier:
// messages the rule engine declines are stored as manual/unknown
// immediately, matching an empty llm_api_key deployment.
type Pipeline struct {
	classifications repository.ClassificationRepository
	llmClassifier    *llm.Classifier
	maxConcurrent    int
	// rulesVersion is the pinned timestamp identifying the current rule
	// bank (spec §4.6 cache-invalidation contract / §9 "cache key
	// drift"). A stored row with source=rules created before this
	// timestamp is treated as a miss and re-classified; AI and manual
	// rows are never considered stale.
	rulesVersion time.Time
}

func New(repo repository.ClassificationRepository, llmClassifier *llm.Classifier, maxConcurrent int, rulesVersion time.Time) *Pipeline {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Pipeline{classifications: repo, llmClassifier: llmClassifier, maxConcurrent: maxConcurrent, rulesVersion: rulesVersion}
}

// isStale reports whether a cached row must be re-classified: only
// rules-sourced rows predating the pinned rules version qualify.
func (p *Pipeline) isStale(cl domain.Classification) bool {
	return cl.Source == domain.SourceRules && cl.CreatedAt.Before(p.rulesVersion)
}

// clampConfidence restricts an LLM-reported confidence to [0,1]. The
// system prompt doesn't currently ask the model for a confidence value,
// so an unset field's zero value clamps to 0 rather than being treated
// as a real (if low) confidence score.
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// ClassifyBatch classifies every message for inboxID, consulting the
// scan-scoped template cache and the persisted classification repository
// before falling to rules and then the LLM. Results are returned in the
// same order as messages; a message already classified in a prior scan
// is skipped and its stored result is reused unchanged.
func (p *Pipeline) ClassifyBatch(ctx context.Context, inboxID string, messages []Message, cache *templatecache.Cache) ([]domain.Classification, error) {
	ids := make([]string, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}

	existing, err := p.classifications.GetByIDs(ctx, inboxID, ids)
	if err != nil {
		return nil, fmt.Errorf("pipeline: batch lookup: %w", err)
	}

	results := make([]domain.Classification, len(messages))
	sem := make(chan struct{}, p.maxConcurrent)
	var wg sync.WaitGroup

	for i, msg := range messages {
		if cl, ok := existing[msg.ID]; ok && !p.isStale(cl) {
			results[i] = cl
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(i int, msg Message) {
			defer wg.Done()
			defer func() { <-sem }()

			cl := p.classifyOne(ctx, inboxID, msg, cache)
			results[i] = cl

			if err := p.classifications.Upsert(ctx, &cl); err != nil {
				log.Printf("pipeline: failed to persist classification for %s/%s: %v", inboxID, msg.ID, err)
			}
		}(i, msg)
	}

	wg.Wait()
	return results, nil
}

// classifyOne runs the cache → rules → LLM chain for a single message.
// Any failure at the LLM tier — exhausted retries, malformed JSON,
// context cancellation — degrades to a manual/unknown placeholder
// rather than propagating an error, so one bad message never blocks a
// batch.
func (p *Pipeline) classifyOne(ctx context.Context, inboxID string, msg Message, cache *templatecache.Cache) domain.Classification {
	fp := fingerprint.Make(msg.Subject, msg.Sender)

	if cache != nil {
		if cl, ok := cache.Get(fp); ok {
			cl.InboxID = inboxID
			cl.MessageID = msg.ID
			cl.CreatedAt = time.Now()
			return cl
		}
	}

	cl, needsAI := rules.Classify(msg.Subject, msg.Sender, msg.Body)
	if !needsAI {
		cl.InboxID = inboxID
		cl.MessageID = msg.ID
		cl.CreatedAt = time.Now()
		if cache != nil {
			cache.Put(fp, cl)
		}
		return cl
	}

	if p.llmClassifier != nil {
		resp, err := p.llmClassifier.Classify(ctx, llm.Request{Subject: msg.Subject, Sender: msg.Sender, Body: msg.Body})
		if err == nil {
			cl = domain.Classification{
				InboxID:        inboxID,
				MessageID:      msg.ID,
				Category:       resp.Category,
				SubCategory:    resp.SubCategory,
				Confidence:     clampConfidence(resp.Confidence),
				Source:         domain.SourceAI,
				Summary:        resp.Summary,
				Urgency:        domain.Urgency(resp.Urgency),
				ActionRequired: resp.ActionRequired,
				KeyDetails:     resp.KeyDetails,
				RawAIPayload:   resp.Raw,
				CreatedAt:      time.Now(),
			}
			if cache != nil {
				cache.Put(fp, cl)
			}
			return cl
		}
		log.Printf("pipeline: llm classification failed for %s/%s: %v", inboxID, msg.ID, err)
	}

	return domain.Classification{
		InboxID:     inboxID,
		MessageID:   msg.ID,
		Category:    "unknown",
		SubCategory: "unclassified",
		Confidence:  1.0,
		Source:      domain.SourceManual,
		Summary:     fmt.Sprintf("Could not classify: %.100s", msg.Subject),
		Urgency:     domain.UrgencyLow,
		CreatedAt:   time.Now(),
	}
}
