package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EvidenceNormalizer turns raw extracted documents into one canonical
// evidence bag for an email. It is pure and never fails: malformed input
// yields empty collections.
type EvidenceNormalizer interface {
	Normalize(emailID string, docs []*RawDocument) *EvidenceBag
}

// BatchOrchestrator drives the full pipeline over an ordered email sequence.
// Each email is processed inside an isolated failure boundary: an error or
// panic for one email becomes a failure record and processing continues.
type BatchOrchestrator struct {
	extractor  DocumentExtractor
	normalizer EvidenceNormalizer
	policy     *ClassificationPolicy
	escalation *EscalationEngine
	resolver   *ActionResolver
	composer   *ResponseComposer
	store      ResultStore
	logger     *zap.Logger
	workers    int

	mu    sync.Mutex
	state BatchState
	done  atomic.Int64
	total atomic.Int64
}

// NewBatchOrchestrator creates a new batch orchestrator. workers <= 1 selects
// sequential processing; a nil store disables persistence.
func NewBatchOrchestrator(
	extractor DocumentExtractor,
	normalizer EvidenceNormalizer,
	policy *ClassificationPolicy,
	escalation *EscalationEngine,
	resolver *ActionResolver,
	composer *ResponseComposer,
	store ResultStore,
	logger *zap.Logger,
	workers int,
) *BatchOrchestrator {
	if workers < 1 {
		workers = 1
	}
	return &BatchOrchestrator{
		extractor:  extractor,
		normalizer: normalizer,
		policy:     policy,
		escalation: escalation,
		resolver:   resolver,
		composer:   composer,
		store:      store,
		logger:     logger,
		workers:    workers,
		state:      BatchPending,
	}
}

// State returns the current lifecycle state of the orchestrator
func (o *BatchOrchestrator) State() BatchState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Progress reports how many emails have finished out of the batch total
func (o *BatchOrchestrator) Progress() (done, total int) {
	return int(o.done.Load()), int(o.total.Load())
}

// Run processes every email in order. Cancellation between items stops the
// run without discarding completed outcomes: the returned item list is simply
// shorter than the input. Run never returns an error for per-email failures.
func (o *BatchOrchestrator) Run(ctx context.Context, emails []*Email) *BatchResult {
	o.setState(BatchRunning)
	o.done.Store(0)
	o.total.Store(int64(len(emails)))

	var items []BatchItem
	if o.workers > 1 {
		items = o.runParallel(ctx, emails)
	} else {
		items = o.runSequential(ctx, emails)
	}

	result := &BatchResult{
		Items:   items,
		Summary: Aggregate(items),
	}

	o.setState(BatchComplete)
	o.logger.Info("Batch run complete",
		zap.Int("total", result.Summary.Total),
		zap.Int("succeeded", result.Summary.Succeeded),
		zap.Int("failed", result.Summary.Failed))

	return result
}

func (o *BatchOrchestrator) runSequential(ctx context.Context, emails []*Email) []BatchItem {
	items := make([]BatchItem, 0, len(emails))
	for i, email := range emails {
		if ctx.Err() != nil {
			o.logger.Warn("Batch cancelled",
				zap.Int("processed", i),
				zap.Int("total", len(emails)))
			break
		}
		items = append(items, o.processItem(ctx, email))
		o.done.Add(1)
	}
	return items
}

// runParallel fans emails out over a bounded worker group. Results are written
// by input index so output order always matches input order regardless of
// completion order.
func (o *BatchOrchestrator) runParallel(ctx context.Context, emails []*Email) []BatchItem {
	slots := make([]*BatchItem, len(emails))

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(o.workers)

	for i, email := range emails {
		if grpCtx.Err() != nil {
			break
		}
		i, email := i, email
		grp.Go(func() error {
			if grpCtx.Err() != nil {
				return nil
			}
			item := o.processItem(grpCtx, email)
			slots[i] = &item
			o.done.Add(1)
			return nil
		})
	}
	// Workers never return errors; Wait is a completion barrier.
	_ = grp.Wait()

	items := make([]BatchItem, 0, len(emails))
	for _, slot := range slots {
		if slot != nil {
			items = append(items, *slot)
		}
	}
	return items
}

// processItem runs one email through the pipeline inside the isolation
// boundary. A panic anywhere in the item's processing is recovered into a
// failure record.
func (o *BatchOrchestrator) processItem(ctx context.Context, email *Email) (item BatchItem) {
	item.EmailID = email.EmailID

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Recovered panic while processing email",
				zap.String("email_id", email.EmailID),
				zap.Any("panic", r))
			item.Result = nil
			item.Err = fmt.Sprintf("panic: %v", r)
		}
	}()

	result, err := o.processEmail(ctx, email)
	if err != nil {
		o.logger.Error("Failed to process email",
			zap.String("email_id", email.EmailID),
			zap.Error(err))
		item.Err = err.Error()
		return item
	}

	item.Result = result
	return item
}

// processEmail runs the forward pipeline for one email: evidence, then
// classification, then the escalation/action/response fan-out.
func (o *BatchOrchestrator) processEmail(ctx context.Context, email *Email) (*EmailResult, error) {
	meta := email.Metadata()
	o.logger.Debug("Processing email",
		zap.String("email_id", email.EmailID),
		zap.Int("body_words", meta.WordCount),
		zap.Int("attachments", meta.AttachmentCount))

	evidence, err := o.collectEvidence(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("evidence extraction: %w", err)
	}

	classification := o.policy.Classify(ctx, email, evidence)
	quality := o.policy.AnalyzeQuality(classification)

	escalation := o.escalation.ShouldEscalate(classification, email.Priority)
	action := o.resolver.Resolve(email, classification)
	response := o.composer.Compose(ctx, email, classification.Intent, evidence)

	result := &EmailResult{
		Email:          email,
		Evidence:       evidence,
		Classification: classification,
		Quality:        quality,
		Escalation:     &escalation,
		Action:         action,
		Response:       response,
	}

	if o.store != nil {
		if err := o.store.Save(ctx, result); err != nil {
			// Persistence is an external collaborator; a store failure must
			// not invalidate the decision outcome.
			o.logger.Error("Failed to persist result",
				zap.String("email_id", email.EmailID),
				zap.Error(err))
		}
	}

	return result, nil
}

// collectEvidence extracts and normalizes evidence from every attachment. An
// email without attachments yields an empty bag.
func (o *BatchOrchestrator) collectEvidence(ctx context.Context, email *Email) (*EvidenceBag, error) {
	if len(email.Attachments) == 0 || o.extractor == nil {
		return o.normalizer.Normalize(email.EmailID, nil), nil
	}

	docs := make([]*RawDocument, 0, len(email.Attachments))
	for _, ref := range email.Attachments {
		doc, err := o.extractor.Extract(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", ref, err)
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}

	return o.normalizer.Normalize(email.EmailID, docs), nil
}

// Aggregate computes run-level summary statistics from per-item outcomes. It
// is pure aggregation: no decision is re-derived, and it combines
// associatively regardless of completion order.
func Aggregate(items []BatchItem) BatchSummary {
	summary := BatchSummary{
		Total:    len(items),
		ByIntent: make(map[Intent]int),
		ByAction: make(map[ActionType]int),
	}

	confidenceSum := 0.0
	for i := range items {
		item := &items[i]
		if item.Failed() {
			summary.Failed++
			continue
		}
		summary.Succeeded++

		c := item.Result.Classification
		summary.ByIntent[c.Intent]++
		summary.ByAction[item.Result.Action.ActionType]++

		confidenceSum += c.Confidence
		if c.Confidence >= 0.8 {
			summary.HighConfidence++
		} else if c.Confidence < 0.6 {
			summary.LowConfidence++
		}
	}

	if summary.Succeeded > 0 {
		summary.AvgConfidence = confidenceSum / float64(summary.Succeeded)
	}

	return summary
}

func (o *BatchOrchestrator) setState(s BatchState) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}
