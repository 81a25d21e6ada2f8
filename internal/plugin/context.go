package plugin

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitetree/internal/cache"
)

// ErrorRecord is one aggregated non-fatal failure. Exactly one of Phase,
// Page, or Plugin identifies the failing unit. Records are append-only for
// the lifetime of a run.
type ErrorRecord struct {
	Phase   string `json:"phase,omitempty"`
	Page    string `json:"page,omitempty"`
	Plugin  string `json:"plugin,omitempty"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// Context is the shared state of one collection run. It is created at the
// start of Collect, threaded through every builder and plugin hook, and
// discarded when Collect returns. It must never be reused across runs.
//
// The error log and cache are shared by all concurrently running builders
// within the run; section-scoped fields (CurrentFile, CurrentSection) live
// on per-section copies made with WithSection.
type Context struct {
	Config         map[string]any
	Environment    string
	Cache          *cache.Cache[string, any]
	ResourcePath   string
	CurrentFile    string
	CurrentSection string
	RunID          string
	Logger         *slog.Logger

	errs *errorLog
}

// NewContext creates a fresh run context. A nil logger falls back to
// slog.Default.
func NewContext(config map[string]any, environment string, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		Config:      config,
		Environment: environment,
		Cache:       cache.New[string, any](),
		RunID:       uuid.NewString(),
		Logger:      logger,
		errs:        &errorLog{},
	}
}

// WithSection returns a copy of the context scoped to one section file. The
// copy shares the run's error log, cache, and configuration.
func (c *Context) WithSection(filePath string) *Context {
	dup := *c
	dup.CurrentFile = filePath
	dup.CurrentSection = filePath
	return &dup
}

// AppendError adds a record to the run's error log. Safe for concurrent use.
func (c *Context) AppendError(rec ErrorRecord) {
	c.errs.append(rec)
}

// Errors returns a snapshot of the error log in append order.
func (c *Context) Errors() []ErrorRecord {
	return c.errs.snapshot()
}

type errorLog struct {
	mu      sync.Mutex
	records []ErrorRecord
}

func (l *errorLog) append(rec ErrorRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

func (l *errorLog) snapshot() []ErrorRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ErrorRecord, len(l.records))
	copy(out, l.records)
	return out
}
