package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lexorahq/aigate/internal/adapter/otel"
	"github.com/lexorahq/aigate/internal/adapter/ws"
	"github.com/lexorahq/aigate/internal/domain/budget"
	"github.com/lexorahq/aigate/internal/domain/call"
	"github.com/lexorahq/aigate/internal/domain/model"
	"github.com/lexorahq/aigate/internal/domain/usage"
	"github.com/lexorahq/aigate/internal/injection"
	"github.com/lexorahq/aigate/internal/port/audit"
	"github.com/lexorahq/aigate/internal/port/database"
	"github.com/lexorahq/aigate/internal/port/provider"
)

// defaultOutputTokens is assumed for pre-call estimation when the request
// does not cap output.
const defaultOutputTokens = 1024

// Pipeline sequences governance for every outbound model call:
// sanitize, classify, route, estimate, budget-check, cache, invoke, record.
type Pipeline struct {
	catalog   *model.Catalog
	router    *Router
	estimator *Estimator
	governor  *Governor
	cache     *ResponseCache
	provider  provider.Client
	store     database.Store
	sink      audit.Sink
	alerts    *ws.Hub
	metrics   *otel.Metrics
	logger    *slog.Logger
}

// PipelineOpts carries the optional collaborators.
type PipelineOpts struct {
	Sink    audit.Sink
	Alerts  *ws.Hub
	Metrics *otel.Metrics
	Logger  *slog.Logger
}

// NewPipeline wires the pipeline from its collaborators.
func NewPipeline(catalog *model.Catalog, router *Router, estimator *Estimator,
	governor *Governor, respCache *ResponseCache, client provider.Client,
	store database.Store, opts PipelineOpts) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		catalog:   catalog,
		router:    router,
		estimator: estimator,
		governor:  governor,
		cache:     respCache,
		provider:  client,
		store:     store,
		sink:      opts.Sink,
		alerts:    opts.Alerts,
		metrics:   opts.Metrics,
		logger:    logger,
	}
}

// Execute runs one call through the full governance sequence. Every failure
// mode is returned as a typed result; Execute never panics or leaks raw
// provider errors. Exactly one usage record is written per completed or
// failed provider attempt; paths that block before spend write none.
func (p *Pipeline) Execute(ctx context.Context, req call.Request) call.Result {
	started := time.Now()

	// 1. Injection defense on every user-authored message.
	sanitized, finding := p.screenMessages(req.Messages)
	if finding.Severity >= injection.SeverityHigh {
		p.recordSecurityBlock(ctx, req, finding)
		return call.Result{
			Failure: &call.Failure{
				Kind:   call.FailureSecurityBlocked,
				Reason: "the request was blocked by our content safety checks",
			},
		}
	}

	// 2. Model selection.
	sel := p.router.Select(req.OperationType, RouteContext{
		CallerTier:          req.CallerTier,
		Priority:            req.Priority,
		RequiresVision:      req.RequiresVision,
		RequiresHighQuality: req.RequiresHighQuality,
		ForcedModel:         req.ForcedModel,
	})
	selectedModel := sel.Model

	// 3. Pre-call cost estimate from approximated token counts.
	promptTokens := 0
	for _, m := range sanitized {
		promptTokens += ApproxTokens(m.Text)
	}
	outputTokens := req.MaxOutputTokens
	if outputTokens <= 0 {
		outputTokens = defaultOutputTokens
	}
	estimated := p.estimator.Estimate(selectedModel, promptTokens, outputTokens)

	var warnings []string

	// 4. Budget governance, serialized per caller+project.
	if !req.BypassBudgetCheck {
		release, err := p.governor.Acquire(req.ProjectID, req.CallerID)
		if err != nil {
			return call.Result{
				EstimatedCost: estimated,
				Failure: &call.Failure{
					Kind:   call.FailureLockContention,
					Reason: "another call for this caller is still being processed; try again shortly",
				},
			}
		}
		defer release()

		decision, err := p.governor.Check(ctx, req.ProjectID, estimated, req.PreviewThreshold)
		if err != nil {
			return call.Result{
				EstimatedCost: estimated,
				Failure: &call.Failure{
					Kind:   call.FailureBudgetUnavailable,
					Reason: "the budget service is temporarily unavailable; no spend occurred",
				},
			}
		}
		if !decision.Allowed {
			p.recordBudgetDeny(ctx, req, decision.Reason, estimated, decision.CurrentMonthSpend)
			return call.Result{
				EstimatedCost: estimated,
				Failure: &call.Failure{
					Kind:   call.FailureBudgetDenied,
					Reason: decision.Reason,
				},
			}
		}
		if decision.RecommendDowngrade {
			// The governor only flags; re-routing to a cheaper model is the
			// pipeline's job.
			if cheaper, found := p.catalog.NextCheaper(selectedModel); found {
				selectedModel = cheaper.ID
				estimated = p.estimator.Estimate(selectedModel, promptTokens, outputTokens)
				warnings = append(warnings, "over budget: downgraded to "+selectedModel)
			}
		}
		if decision.RequiresPreview && !req.Confirmed {
			return call.Result{
				Model:           selectedModel,
				RequiresPreview: true,
				EstimatedCost:   estimated,
				Warnings:        warnings,
			}
		}
		if decision.State != "" && decision.State != budget.StateUnderBudget {
			warnings = append(warnings, "budget state: "+string(decision.State))
			p.notifyAtRisk(ctx, req, string(decision.State))
		}
	}

	// 5. Cache lookup for cacheable call classes.
	class := classOf(req.OperationType)
	cacheQuery := joinUserText(sanitized)
	cacheFilters := map[string]string{
		"model":     selectedModel,
		"operation": string(req.OperationType),
	}
	if req.Cacheable && p.cache != nil {
		payload, hit, err := p.cache.Get(ctx, req.ProjectID, class, cacheQuery, cacheFilters)
		if err != nil {
			p.logger.Warn("cache lookup failed", "error", err)
		}
		if hit {
			if p.metrics != nil {
				p.metrics.CacheHits.Add(ctx, 1)
			}
			return call.Result{
				Success:    true,
				Content:    string(payload),
				Model:      selectedModel,
				Cached:     true,
				DurationMs: time.Since(started).Milliseconds(),
				Warnings:   warnings,
			}
		}
		if p.metrics != nil {
			p.metrics.CacheMisses.Add(ctx, 1)
		}
	}

	// 6. Provider invocation.
	content, provUsage, err := p.invoke(ctx, selectedModel, sanitized, req)
	duration := time.Since(started)

	// 7. Typed failure mapping. A cancelled attempt leaves no usage record.
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return call.Result{
				EstimatedCost: estimated,
				Failure: &call.Failure{
					Kind:   call.FailureProviderError,
					Reason: "the call was cancelled; no spend occurred",
				},
			}
		}
		kind, status, reason := mapProviderError(err)
		p.appendUsage(ctx, req, selectedModel, promptTokens, 0, 0, duration, status)
		if p.metrics != nil {
			p.metrics.CallDuration.Record(ctx, duration.Seconds())
		}
		return call.Result{
			Model:         selectedModel,
			EstimatedCost: estimated,
			DurationMs:    duration.Milliseconds(),
			Failure:       &call.Failure{Kind: kind, Reason: reason},
		}
	}

	// 8. Actual cost from provider-reported usage, falling back to the
	// pre-call approximation.
	actualPrompt := provUsage.PromptTokens
	if actualPrompt == 0 {
		actualPrompt = promptTokens
	}
	actualCompletion := provUsage.CompletionTokens
	if actualCompletion == 0 && req.OperationType != call.OpEmbedding {
		actualCompletion = ApproxTokens(content)
	}
	cost := p.estimator.Estimate(selectedModel, actualPrompt, actualCompletion)

	p.appendUsage(ctx, req, selectedModel, actualPrompt, actualCompletion, cost, duration, usage.StatusSuccess)

	if req.Cacheable && p.cache != nil {
		if err := p.cache.Put(ctx, req.ProjectID, class, cacheQuery, cacheFilters, []byte(content)); err != nil {
			p.logger.Warn("cache store failed", "error", err)
		}
	}

	if p.metrics != nil {
		p.metrics.CallsExecuted.Add(ctx, 1)
		p.metrics.CallCost.Record(ctx, cost)
		p.metrics.CallDuration.Record(ctx, duration.Seconds())
	}

	return call.Result{
		Success:          true,
		Content:          content,
		Model:            selectedModel,
		PromptTokens:     actualPrompt,
		CompletionTokens: actualCompletion,
		CostUSD:          cost,
		DurationMs:       duration.Milliseconds(),
		Warnings:         warnings,
	}
}

// screenMessages classifies each user message, folding findings into the
// worst one seen, and returns a copy with user text replaced by its
// sanitized form.
func (p *Pipeline) screenMessages(messages []call.Message) ([]call.Message, injection.Finding) {
	out := make([]call.Message, len(messages))
	worst := injection.Finding{Severity: injection.SeverityNone}
	seen := make(map[string]bool)

	for i, m := range messages {
		out[i] = m
		if m.Role != call.RoleUser {
			continue
		}
		f := injection.Classify(m.Text)
		out[i].Text = f.SanitizedText
		if f.Detected {
			worst.Detected = true
			for _, c := range f.Categories {
				if !seen[c] {
					seen[c] = true
					worst.Categories = append(worst.Categories, c)
				}
			}
			if f.Severity > worst.Severity {
				worst.Severity = f.Severity
			}
		}
	}
	return out, worst
}

// invoke calls the provider using the path matching the operation type.
func (p *Pipeline) invoke(ctx context.Context, modelID string, messages []call.Message, req call.Request) (string, provider.Usage, error) {
	if req.OperationType == call.OpEmbedding {
		emb, err := p.provider.Embed(ctx, modelID, joinUserText(messages))
		if err != nil {
			return "", provider.Usage{}, err
		}
		data, err := json.Marshal(emb.Vector)
		if err != nil {
			return "", provider.Usage{}, err
		}
		return string(data), provider.Usage{PromptTokens: emb.TokensUsed}, nil
	}

	comp, err := p.provider.Complete(ctx, modelID, messages, req.MaxOutputTokens, req.Temperature)
	if err != nil {
		return "", provider.Usage{}, err
	}
	return comp.Content, comp.Usage, nil
}

// appendUsage writes the ledger record for one attempt. A failed append is
// logged but never fails the call that produced it.
func (p *Pipeline) appendUsage(ctx context.Context, req call.Request, modelID string,
	promptTokens, completionTokens int, cost float64, duration time.Duration, status usage.Status) {
	rec := usage.Record{
		ID:               uuid.NewString(),
		ProjectID:        req.ProjectID,
		CallerID:         req.CallerID,
		Model:            modelID,
		OperationType:    string(req.OperationType),
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		CostUSD:          cost,
		DurationMs:       duration.Milliseconds(),
		Status:           status,
		CreatedAt:        time.Now().UTC(),
	}
	if err := p.store.AppendUsage(ctx, rec); err != nil {
		p.logger.Error("usage record append failed", "project_id", req.ProjectID, "error", err)
	}
}

// recordSecurityBlock persists and publishes the blocked-injection event.
// Sink failures are logged once and swallowed: audit is best-effort.
func (p *Pipeline) recordSecurityBlock(ctx context.Context, req call.Request, f injection.Finding) {
	ev := audit.SecurityEvent{
		ID:         uuid.NewString(),
		ProjectID:  req.ProjectID,
		CallerID:   req.CallerID,
		Severity:   f.Severity.String(),
		Categories: f.Categories,
		OccurredAt: time.Now().UTC(),
	}

	p.logger.Warn("injection attempt blocked",
		"project_id", req.ProjectID,
		"caller_id", req.CallerID,
		"severity", ev.Severity,
		"categories", strings.Join(f.Categories, ","))

	if err := p.store.InsertSecurityEvent(ctx, ev); err != nil {
		p.logger.Warn("security event persist failed", "error", err)
	}
	if p.sink != nil {
		if err := p.sink.Security(ctx, ev); err != nil {
			p.logger.Warn("security audit publish failed", "error", err)
		}
	}
	if p.alerts != nil {
		p.alerts.Notify(ctx, ws.AlertSecurityBlocked, ev)
	}
	if p.metrics != nil {
		p.metrics.SecurityBlocks.Add(ctx, 1)
	}
}

// recordBudgetDeny publishes the budget-deny event. Best-effort, like all
// audit paths.
func (p *Pipeline) recordBudgetDeny(ctx context.Context, req call.Request, reason string, estimated, spend float64) {
	ev := audit.BudgetEvent{
		ID:            uuid.NewString(),
		ProjectID:     req.ProjectID,
		CallerID:      req.CallerID,
		Reason:        reason,
		EstimatedCost: estimated,
		MonthSpend:    spend,
		OccurredAt:    time.Now().UTC(),
	}

	if p.sink != nil {
		if err := p.sink.Budget(ctx, ev); err != nil {
			p.logger.Warn("budget audit publish failed", "error", err)
		}
	}
	if p.alerts != nil {
		p.alerts.Notify(ctx, ws.AlertBudgetDenied, ev)
	}
	if p.metrics != nil {
		p.metrics.BudgetDenials.Add(ctx, 1)
	}
}

func (p *Pipeline) notifyAtRisk(ctx context.Context, req call.Request, state string) {
	if p.alerts != nil {
		p.alerts.Notify(ctx, ws.AlertBudgetAtRisk, map[string]string{
			"project_id": req.ProjectID,
			"state":      state,
		})
	}
}

// classOf maps an operation type to its cacheable call class.
func classOf(op call.OperationType) CallClass {
	if op == call.OpEmbedding {
		return ClassEmbedding
	}
	return ClassSearch
}

// joinUserText concatenates user-authored message text, which is the
// normalized query for cache keying and the input for embedding calls.
func joinUserText(messages []call.Message) string {
	var parts []string
	for _, m := range messages {
		if m.Role == call.RoleUser {
			parts = append(parts, m.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func mapProviderError(err error) (call.FailureKind, usage.Status, string) {
	switch {
	case errors.Is(err, provider.ErrRateLimited):
		return call.FailureRateLimited, usage.StatusRateLimited,
			"the model provider is rate limiting requests; please retry shortly (no spend occurred)"
	case errors.Is(err, provider.ErrPaymentRequired):
		return call.FailurePaymentRequired, usage.StatusPaymentRequired,
			"the model provider reported a billing problem; contact your administrator"
	default:
		return call.FailureProviderError, usage.StatusProviderError,
			"the model provider request failed; no spend occurred and you may retry"
	}
}
