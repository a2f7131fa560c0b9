package importer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"wholesale-catalog/internal/cache"
	"wholesale-catalog/internal/category"
	"wholesale-catalog/internal/domain"
	"wholesale-catalog/internal/imaging"
	"wholesale-catalog/internal/metrics"
	"wholesale-catalog/internal/pricing"
	"wholesale-catalog/internal/variation"
)

// Sink receives finished payloads. Implementations must be idempotent by
// barcode; the importer calls them at most once per barcode per run.
type Sink interface {
	UpsertProduct(ctx context.Context, p domain.ProductPayload) (domain.SinkResult, error)
	UpsertVariationGroup(ctx context.Context, g domain.GroupPayload) (domain.SinkResult, error)
}

// Images produces the artifacts for one product.
type Images interface {
	Normalize(ctx context.Context, refs []string, productName string) imaging.Report
}

type Options struct {
	// Workers bounds how many products or groups are assembled at once.
	Workers  int
	Category category.Options
	// Ledger remembers what was sinked by earlier runs. Nil keeps no memory
	// across runs.
	Ledger cache.Ledger
}

type Importer struct {
	sink     Sink
	detector *variation.Detector
	curve    pricing.Curve
	images   Images
	catOpts  category.Options
	ledger   cache.Ledger
	workers  int
	log      *zerolog.Logger
}

func New(sink Sink, detector *variation.Detector, curve pricing.Curve, images Images, opts Options, log *zerolog.Logger) *Importer {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Ledger == nil {
		opts.Ledger = cache.NewMemoryLedger()
	}
	if opts.Category.Weights == (category.Weights{}) {
		opts.Category = category.DefaultOptions()
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Importer{
		sink:     sink,
		detector: detector,
		curve:    curve,
		images:   images,
		catOpts:  opts.Category,
		ledger:   opts.Ledger,
		workers:  opts.Workers,
		log:      log,
	}
}

// job is one unit of sink work: a single record or a whole variation group.
type job struct {
	record *domain.ProductRecord
	group  *domain.VariationGroup
}

// Run imports records in one pass. Per-item problems end up in the summary;
// the returned error is non-nil only when ctx ends before every job ran.
func (im *Importer) Run(ctx context.Context, records []domain.ProductRecord, mapping domain.CategoryMapping) (domain.RunSummary, error) {
	summary := domain.RunSummary{Parsed: len(records)}

	valid, sellable := im.screen(records, &summary)

	engine := category.NewEngine(valid, mapping, im.catOpts, im.log)
	partition := im.detector.Detect(sellable)
	summary.VariationGroups = len(partition.Groups)
	summary.SimpleProducts = len(partition.Simple)
	summary.VariationConflicts = len(partition.Conflicts)
	for _, c := range partition.Conflicts {
		summary.Warnings = append(summary.Warnings, domain.ItemError{
			Key:     c.Group.Key(),
			Stage:   domain.StageVariation,
			Message: fmt.Sprintf("%v: %s", domain.ErrVariationConflict, c.Reason),
		})
	}

	jobs := make([]job, 0, len(partition.Groups)+len(partition.Simple))
	for i := range partition.Groups {
		jobs = append(jobs, job{group: &partition.Groups[i]})
	}
	for i := range partition.Simple {
		jobs = append(jobs, job{record: &partition.Simple[i]})
	}

	w := &worker{
		Importer: im,
		engine:   engine,
		claims:   newClaimSet(),
	}
	results := make([]domain.RunSummary, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.workers)
	for i := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if jobs[i].group != nil {
				w.group(gctx, *jobs[i].group, &results[i])
			} else {
				w.simple(gctx, *jobs[i].record, &results[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	for i := range results {
		merge(&summary, &results[i])
	}

	im.log.Info().
		Int("parsed", summary.Parsed).
		Int("processed", summary.Processed).
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Int("unchanged", summary.Unchanged).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("import finished")

	return summary, ctx.Err()
}

// screen drops records that cannot be imported. It returns every importable
// record and the subset that can be priced.
func (im *Importer) screen(records []domain.ProductRecord, summary *domain.RunSummary) (valid, sellable []domain.ProductRecord) {
	seen := make(map[string]struct{}, len(records))
	skip := func(rec domain.ProductRecord, err error, warn bool) {
		summary.Skipped++
		metrics.Item("skipped")
		item := domain.ItemError{Key: rec.Key(), Stage: domain.StageValidate, Message: err.Error()}
		if warn {
			summary.Warnings = append(summary.Warnings, item)
		} else {
			summary.Errors = append(summary.Errors, item)
		}
		im.log.Warn().Str("sku", rec.SKU).Str("barcode", rec.Barcode).Int("line", rec.Line).Err(err).Msg("record skipped")
	}

	for _, rec := range records {
		if !rec.Importable() {
			skip(rec, domain.ErrInvalidRecord, false)
			continue
		}
		if _, dup := seen[rec.Barcode]; dup {
			skip(rec, domain.ErrDuplicateBarcode, false)
			continue
		}
		seen[rec.Barcode] = struct{}{}
		valid = append(valid, rec)
		if !rec.Sellable() {
			skip(rec, domain.ErrNotSellable, true)
			continue
		}
		sellable = append(sellable, rec)
	}
	return valid, sellable
}

func merge(dst, src *domain.RunSummary) {
	dst.Processed += src.Processed
	dst.Created += src.Created
	dst.Updated += src.Updated
	dst.Unchanged += src.Unchanged
	dst.Failed += src.Failed
	dst.CategoriesExplicit += src.CategoriesExplicit
	dst.CategoriesSimilarity += src.CategoriesSimilarity
	dst.CategoriesByType += src.CategoriesByType
	dst.CategoriesNone += src.CategoriesNone
	dst.ImagesSucceeded += src.ImagesSucceeded
	dst.ImagesFailed += src.ImagesFailed
	dst.ZeroImageProducts += src.ZeroImageProducts
	dst.Errors = append(dst.Errors, src.Errors...)
	dst.Warnings = append(dst.Warnings, src.Warnings...)
}
