package importer

import (
	"context"
	"errors"
	"fmt"

	"wholesale-catalog/internal/category"
	"wholesale-catalog/internal/domain"
	"wholesale-catalog/internal/metrics"
)

type worker struct {
	*Importer
	engine *category.Engine
	claims *claimSet
}

// prepared is one record with everything derived from it.
type prepared struct {
	rec    domain.ProductRecord
	cats   domain.CategoryAssignment
	price  domain.PriceQuote
	images []domain.ImageArtifact
}

func (w *worker) simple(ctx context.Context, rec domain.ProductRecord, out *domain.RunSummary) {
	out.Processed++
	p, err := w.prepare(ctx, rec, out)
	if err != nil {
		w.fail(out, domain.StageValidate, err, rec)
		return
	}
	payload := domain.ProductPayload{Record: p.rec, Categories: p.cats, Price: p.price, Images: p.images}
	fp, err := fingerprint(payload)
	if err != nil {
		w.fail(out, domain.StageSink, err, rec)
		return
	}
	if w.unchanged(ctx, fp, rec.Barcode) {
		out.Unchanged++
		metrics.Item("unchanged")
		return
	}
	if err := w.claims.claim(rec.Barcode); err != nil {
		w.fail(out, domain.StageSink, err, rec)
		return
	}
	res, err := w.sink.UpsertProduct(ctx, payload)
	if err != nil {
		w.fail(out, domain.StageSink, fmt.Errorf("upsert product: %w", err), rec)
		return
	}
	w.written(ctx, out, res, fp, rec)
}

func (w *worker) group(ctx context.Context, g domain.VariationGroup, out *domain.RunSummary) {
	recs := g.Records()
	out.Processed += len(recs)

	payload := domain.GroupPayload{Group: g, Members: make([]domain.MemberPayload, 0, len(g.Members))}
	for _, m := range g.Members {
		p, err := w.prepare(ctx, m.Record, out)
		if err != nil {
			w.fail(out, domain.StageValidate, err, recs...)
			return
		}
		payload.Members = append(payload.Members, domain.MemberPayload{
			Record:      p.rec,
			OptionValue: m.OptionValue,
			Categories:  p.cats,
			Price:       p.price,
			Images:      p.images,
		})
	}

	barcodes := make([]string, len(recs))
	for i, r := range recs {
		barcodes[i] = r.Barcode
	}
	fp, err := fingerprint(payload)
	if err != nil {
		w.fail(out, domain.StageSink, err, recs...)
		return
	}
	if w.unchanged(ctx, fp, barcodes...) {
		out.Unchanged += len(recs)
		for range recs {
			metrics.Item("unchanged")
		}
		return
	}
	if err := w.claims.claim(barcodes...); err != nil {
		w.fail(out, domain.StageSink, err, recs...)
		return
	}
	res, err := w.sink.UpsertVariationGroup(ctx, payload)
	if err != nil {
		w.fail(out, domain.StageSink, fmt.Errorf("upsert variation group %q: %w", g.BaseName, err), recs...)
		return
	}
	w.written(ctx, out, res, fp, recs...)
}

// prepare resolves categories, prices and images for one record. Image
// failures are warnings; only a pricing error fails the record.
func (w *worker) prepare(ctx context.Context, rec domain.ProductRecord, out *domain.RunSummary) (prepared, error) {
	cats := w.engine.Resolve(rec)
	metrics.Category(string(cats.Method))
	switch cats.Method {
	case domain.CategoryExplicit:
		out.CategoriesExplicit++
	case domain.CategorySimilarity:
		out.CategoriesSimilarity++
	case domain.CategoryByType:
		out.CategoriesByType++
	default:
		out.CategoriesNone++
	}

	price, err := w.curve.Quote(rec.WholesalePrice)
	if err != nil {
		return prepared{}, err
	}

	var images []domain.ImageArtifact
	if w.images != nil && len(rec.Images) > 0 {
		report := w.images.Normalize(ctx, rec.Images, rec.Name)
		images = report.Artifacts
		for _, f := range report.Failures {
			out.Warnings = append(out.Warnings, domain.ItemError{Key: rec.Key(), Stage: domain.StageImage, Message: f.Error()})
		}
		out.ImagesFailed += len(report.Failures)
		metrics.Images("failed", len(report.Failures))
		if len(images) == 0 {
			out.Warnings = append(out.Warnings, domain.ItemError{Key: rec.Key(), Stage: domain.StageImage, Message: domain.ErrNoImages.Error()})
			w.log.Warn().Str("sku", rec.SKU).Str("barcode", rec.Barcode).Int("refs", len(rec.Images)).Msg("product has no images")
		}
	}
	out.ImagesSucceeded += len(images)
	metrics.Images("succeeded", len(images))
	if len(images) == 0 {
		out.ZeroImageProducts++
	}
	return prepared{rec: rec, cats: cats, price: price, images: images}, nil
}

// unchanged reports whether every barcode was last sinked with fp. Ledger
// errors count as changed.
func (w *worker) unchanged(ctx context.Context, fp string, barcodes ...string) bool {
	for _, b := range barcodes {
		prev, ok, err := w.ledger.Fingerprint(ctx, b)
		if err != nil {
			w.log.Warn().Str("barcode", b).Err(err).Msg("ledger lookup failed")
			return false
		}
		if !ok || prev != fp {
			return false
		}
	}
	return true
}

func (w *worker) written(ctx context.Context, out *domain.RunSummary, res domain.SinkResult, fp string, recs ...domain.ProductRecord) {
	outcome := "updated"
	if res.Created {
		outcome = "created"
	}
	for _, r := range recs {
		if res.Created {
			out.Created++
		} else {
			out.Updated++
		}
		metrics.Item(outcome)
		if err := w.ledger.Remember(ctx, r.Barcode, fp); err != nil {
			w.log.Warn().Str("barcode", r.Barcode).Err(err).Msg("ledger write failed")
		}
	}
	w.log.Debug().Str("id", res.ID).Str("outcome", outcome).Int("records", len(recs)).Msg("sinked")
}

func (w *worker) fail(out *domain.RunSummary, stage domain.Stage, err error, recs ...domain.ProductRecord) {
	for _, r := range recs {
		out.Failed++
		metrics.Item("failed")
		out.Errors = append(out.Errors, domain.ItemError{Key: r.Key(), Stage: stage, Message: err.Error()})
		w.log.Warn().Str("sku", r.SKU).Str("barcode", r.Barcode).Str("stage", string(stage)).Err(err).Msg("item failed")
	}
	if errors.Is(err, domain.ErrAlreadyWritten) {
		w.log.Error().Err(err).Msg("duplicate sink write prevented")
	}
}
