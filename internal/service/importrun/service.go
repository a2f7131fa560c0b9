package importrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wholesale-catalog/internal/domain"
	"wholesale-catalog/internal/feed"
	"wholesale-catalog/internal/metrics"
	runrepo "wholesale-catalog/internal/repository/importrun"
	sourcerepo "wholesale-catalog/internal/repository/source"
)

// Importer runs the catalog pipeline over parsed records.
type Importer interface {
	Run(ctx context.Context, records []domain.ProductRecord, mapping domain.CategoryMapping) (domain.RunSummary, error)
}

type mappingSource interface {
	Mapping(ctx context.Context) (domain.CategoryMapping, error)
}

// Request describes one run over a server-side feed file.
type Request struct {
	Path      string      `json:"path"`
	SourceKey string      `json:"source"`
	Format    feed.Format `json:"format"`
}

// Coordinator records import runs and executes them one at a time.
type Coordinator struct {
	runs       runrepo.Repository
	sources    sourcerepo.Repository
	categories mappingSource
	importer   Importer
	feedOpts   feed.Options
	log        *zerolog.Logger

	mu sync.Mutex
	wg sync.WaitGroup
}

func New(runs runrepo.Repository, sources sourcerepo.Repository, categories mappingSource, importer Importer, feedOpts feed.Options, log *zerolog.Logger) *Coordinator {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Coordinator{
		runs:       runs,
		sources:    sources,
		categories: categories,
		importer:   importer,
		feedOpts:   feedOpts,
		log:        log,
	}
}

// Run executes a run synchronously and returns it in its final state. The
// error is non-nil for unrecoverable problems; per-item failures are in the
// summary.
func (c *Coordinator) Run(ctx context.Context, req Request) (*domain.ImportRun, error) {
	run, err := c.open(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.execute(ctx, run, req)
}

// Start records a run and executes it in the background.
func (c *Coordinator) Start(ctx context.Context, req Request) (*domain.ImportRun, error) {
	run, err := c.open(ctx, req)
	if err != nil {
		return nil, err
	}
	started := *run
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.execute(context.WithoutCancel(ctx), run, req); err != nil {
			c.log.Error().Str("run_id", run.ID).Err(err).Msg("import run failed")
		}
	}()
	return &started, nil
}

// Wait blocks until background runs have finished.
func (c *Coordinator) Wait() { c.wg.Wait() }

func (c *Coordinator) Get(ctx context.Context, id string) (*domain.ImportRun, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return c.runs.Get(ctx, id)
}

func (c *Coordinator) List(ctx context.Context, limit int) ([]domain.ImportRun, error) {
	return c.runs.List(ctx, limit)
}

func (c *Coordinator) Errors(ctx context.Context, id string) ([]domain.ItemError, []domain.ItemError, error) {
	if _, err := c.Get(ctx, id); err != nil {
		return nil, nil, err
	}
	return c.runs.ListErrors(ctx, id)
}

func (c *Coordinator) open(ctx context.Context, req Request) (*domain.ImportRun, error) {
	if strings.TrimSpace(req.Path) == "" {
		return nil, errors.New("feed path is required")
	}
	if req.SourceKey == "" {
		req.SourceKey = "default"
	}
	src, err := c.sources.Ensure(ctx, req.SourceKey, "")
	if err != nil {
		return nil, fmt.Errorf("ensure source %q: %w", req.SourceKey, err)
	}
	run := &domain.ImportRun{
		ID:        uuid.NewString(),
		SourceKey: src.Key,
		FileName:  filepath.Base(req.Path),
		Status:    domain.RunRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := c.runs.Create(ctx, *run, src.ID); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	c.log.Info().Str("run_id", run.ID).Str("source", src.Key).Str("file", req.Path).Msg("import run started")
	return run, nil
}

func (c *Coordinator) execute(ctx context.Context, run *domain.ImportRun, req Request) (*domain.ImportRun, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary, err := c.importFile(ctx, req)
	status := domain.RunSucceeded
	message := ""
	if err != nil {
		status = domain.RunFailed
		message = err.Error()
	}

	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if ferr := c.runs.Finish(finishCtx, run.ID, status, message, summary); ferr != nil {
		c.log.Error().Str("run_id", run.ID).Err(ferr).Msg("store run result")
		if err == nil {
			err = fmt.Errorf("store run result: %w", ferr)
		}
	}

	elapsed := time.Since(run.StartedAt)
	metrics.RunFinished(string(status), elapsed)
	finished := time.Now().UTC()
	run.Status = status
	run.Message = message
	run.Summary = summary
	run.FinishedAt = &finished

	ev := c.log.Info()
	if err != nil {
		ev = c.log.Error().Err(err)
	}
	ev.Str("run_id", run.ID).Str("status", string(status)).Dur("elapsed", elapsed).Msg("import run finished")
	return run, err
}

// importFile reads and imports one feed. A nil summary means nothing was
// imported.
func (c *Coordinator) importFile(ctx context.Context, req Request) (*domain.RunSummary, error) {
	f, err := os.Open(req.Path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()

	format := req.Format
	if format == "" {
		format = feed.FormatAuto
	}
	parsed, err := feed.Read(f, format, c.feedOpts)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}

	mapping, err := c.categories.Mapping(ctx)
	if err != nil {
		return nil, fmt.Errorf("load category mapping: %w", err)
	}

	summary, err := c.importer.Run(ctx, parsed.Records, mapping)
	issues := make([]domain.ItemError, 0, len(parsed.Issues))
	for _, is := range parsed.Issues {
		key := is.Key
		if key == "" {
			key = fmt.Sprintf("line %d", is.Line)
		}
		issues = append(issues, domain.ItemError{Key: key, Stage: domain.StageParse, Message: is.Message})
	}
	summary.Errors = append(issues, summary.Errors...)
	if err != nil {
		return &summary, fmt.Errorf("import: %w", err)
	}
	return &summary, nil
}
