package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/lexorahq/aigate/internal/domain"
	"github.com/lexorahq/aigate/internal/domain/budget"
	"github.com/lexorahq/aigate/internal/domain/call"
	"github.com/lexorahq/aigate/internal/domain/model"
	"github.com/lexorahq/aigate/internal/domain/usage"
	"github.com/lexorahq/aigate/internal/port/audit"
	"github.com/lexorahq/aigate/internal/port/provider"
)

// memStore is an in-memory database.Store for service tests.
type memStore struct {
	mu             sync.Mutex
	records        []usage.Record
	budgets        map[string]budget.Config
	securityEvents []audit.SecurityEvent
	spend          map[string]float64

	failLoads  bool
	loadDelay  time.Duration
	appendErrs int
}

func newMemStore() *memStore {
	return &memStore{
		budgets: make(map[string]budget.Config),
		spend:   make(map[string]float64),
	}
}

func (s *memStore) AppendUsage(_ context.Context, rec usage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErrs > 0 {
		s.appendErrs--
		return errors.New("append failed")
	}
	s.records = append(s.records, rec)
	s.spend[rec.ProjectID] += rec.CostUSD
	return nil
}

func (s *memStore) MonthSpend(ctx context.Context, projectID string) (float64, error) {
	if s.loadDelay > 0 {
		select {
		case <-time.After(s.loadDelay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLoads {
		return 0, errors.New("ledger unavailable")
	}
	return s.spend[projectID], nil
}

func (s *memStore) GetBudgetConfig(_ context.Context, projectID string) (*budget.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLoads {
		return nil, errors.New("config unavailable")
	}
	cfg, ok := s.budgets[projectID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cfg, nil
}

func (s *memStore) PutBudgetConfig(_ context.Context, cfg budget.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[cfg.ProjectID] = cfg
	return nil
}

func (s *memStore) InsertSecurityEvent(_ context.Context, ev audit.SecurityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.securityEvents = append(s.securityEvents, ev)
	return nil
}

func (s *memStore) UsageSummary(_ context.Context, projectID string) (*usage.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := &usage.Summary{}
	for _, r := range s.records {
		if r.ProjectID != projectID {
			continue
		}
		sum.TotalCostUSD += r.CostUSD
		sum.TotalPromptTokens += int64(r.PromptTokens)
		sum.TotalCompletionTokens += int64(r.CompletionTokens)
		sum.CallCount++
	}
	return sum, nil
}

func (s *memStore) UsageByModel(_ context.Context, projectID string) ([]usage.ModelSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byModel := make(map[string]*usage.ModelSummary)
	var out []usage.ModelSummary
	for _, r := range s.records {
		if r.ProjectID != projectID {
			continue
		}
		ms, ok := byModel[r.Model]
		if !ok {
			out = append(out, usage.ModelSummary{Model: r.Model})
			ms = &out[len(out)-1]
			byModel[r.Model] = ms
		}
		ms.TotalCostUSD += r.CostUSD
		ms.CallCount++
	}
	return out, nil
}

func (s *memStore) RecentUsage(_ context.Context, projectID string, limit int) ([]usage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []usage.Record
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		if s.records[i].ProjectID == projectID {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

func (s *memStore) recordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *memStore) lastRecord() (usage.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return usage.Record{}, false
	}
	return s.records[len(s.records)-1], true
}

// fakeProvider is a scripted provider.Client.
type fakeProvider struct {
	mu          sync.Mutex
	calls       int
	err         error
	content     string
	promptTok   int
	completeTok int
	delay       time.Duration
}

func (f *fakeProvider) Complete(ctx context.Context, _ string, _ []call.Message, _ int, _ float64) (*provider.Completion, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	content := f.content
	if content == "" {
		content = "ok"
	}
	return &provider.Completion{
		Content: content,
		Usage:   provider.Usage{PromptTokens: f.promptTok, CompletionTokens: f.completeTok},
	}, nil
}

func (f *fakeProvider) Embed(_ context.Context, _, _ string) (*provider.Embedding, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &provider.Embedding{Vector: []float64{0.1, 0.2}, TokensUsed: f.promptTok}, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memSink collects audit events.
type memSink struct {
	mu       sync.Mutex
	security []audit.SecurityEvent
	budgets  []audit.BudgetEvent
}

func (s *memSink) Security(_ context.Context, ev audit.SecurityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.security = append(s.security, ev)
	return nil
}

func (s *memSink) Budget(_ context.Context, ev audit.BudgetEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets = append(s.budgets, ev)
	return nil
}

// memCacheBackend is an in-memory cache.Cache for ResponseCache tests.
type memCacheBackend struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCacheBackend() *memCacheBackend {
	return &memCacheBackend{entries: make(map[string][]byte)}
}

func (m *memCacheBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memCacheBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memCacheBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memCacheBackend) DeleteByPrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *memCacheBackend) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func testCatalog() *model.Catalog {
	return model.DefaultCatalog()
}

func floatPtr(v float64) *float64 { return &v }
