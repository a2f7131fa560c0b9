package imaging

import (
	"bytes"
	"context"
	"errors"
	"image"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"wholesale-catalog/internal/domain"
	"wholesale-catalog/internal/retry"
)

type Options struct {
	// Workers bounds concurrent fetches and encodes across all products.
	Workers   int
	Policy    retry.Policy
	Index     ContentIndex
	Publisher Publisher
}

// Report lists the artifacts of one product in source order and the images
// that could not be produced.
type Report struct {
	Artifacts []domain.ImageArtifact
	Failures  []*Failure
}

type Normalizer struct {
	fetcher   Fetcher
	cache     *DiskCache
	index     ContentIndex
	publisher Publisher
	sem       *semaphore.Weighted
	policy    retry.Policy
	log       *zerolog.Logger
}

func NewNormalizer(fetcher Fetcher, cache *DiskCache, opts Options, log *zerolog.Logger) *Normalizer {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Index == nil {
		opts.Index = NewMemoryIndex()
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Normalizer{
		fetcher:   fetcher,
		cache:     cache,
		index:     opts.Index,
		publisher: opts.Publisher,
		sem:       semaphore.NewWeighted(int64(opts.Workers)),
		policy:    opts.Policy,
		log:       log,
	}
}

// Normalize processes every reference concurrently. A failed image does not
// stop the others; Artifacts keeps the order of refs.
func (n *Normalizer) Normalize(ctx context.Context, refs []string, productName string) Report {
	type slot struct {
		art  domain.ImageArtifact
		fail *Failure
		skip bool
	}
	slots := make([]slot, len(refs))
	var wg sync.WaitGroup
	for i, ref := range refs {
		if ref == "" {
			slots[i].skip = true
			continue
		}
		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			art, err := n.one(ctx, ref, productName, i)
			if err != nil {
				var f *Failure
				if !errors.As(err, &f) {
					f = &Failure{Kind: KindIO, Err: err}
				}
				f.Ref, f.Index = ref, i
				slots[i].fail = f
				return
			}
			slots[i].art = art
		}(i, ref)
	}
	wg.Wait()

	var rep Report
	for _, s := range slots {
		switch {
		case s.skip:
		case s.fail != nil:
			n.log.Warn().Err(s.fail.Err).Str("kind", string(s.fail.Kind)).Str("ref", s.fail.Ref).
				Int("attempts", s.fail.Attempts).Str("product", productName).Msg("image failed")
			rep.Failures = append(rep.Failures, s.fail)
		default:
			rep.Artifacts = append(rep.Artifacts, s.art)
		}
	}
	return rep
}

func (n *Normalizer) one(ctx context.Context, ref, productName string, index int) (domain.ImageArtifact, error) {
	path := n.cache.Path(productName, index)
	var (
		art  domain.ImageArtifact
		data []byte
	)
	if cached, ok := n.cache.Load(path); ok {
		data = cached
		art = domain.ImageArtifact{
			ContentHash: Hash(cached),
			LocalPath:   path,
			Width:       TargetSize,
			Height:      TargetSize,
			Cached:      true,
		}
	} else {
		var err error
		if art, data, err = n.fetchAndEncode(ctx, ref, path); err != nil {
			return domain.ImageArtifact{}, err
		}
	}
	art.SourceRef, art.Index = ref, index

	if err := n.index.Record(ctx, art.ContentHash, path); err != nil {
		return domain.ImageArtifact{}, &Failure{Kind: KindIO, Err: err}
	}
	if n.publisher != nil {
		u, err := n.publish(ctx, art, data)
		if err != nil {
			return domain.ImageArtifact{}, &Failure{Kind: KindPublish, Err: err}
		}
		art.PublicURL = u
	}
	return art, nil
}

// FetchAndEncode fetches ref with retries, renders it and writes it to path.
// The returned error is a *Failure.
func (n *Normalizer) FetchAndEncode(ctx context.Context, ref, path string) (domain.ImageArtifact, error) {
	art, _, err := n.fetchAndEncode(ctx, ref, path)
	if err == nil {
		art.SourceRef = ref
	}
	return art, err
}

func (n *Normalizer) fetchAndEncode(ctx context.Context, ref, path string) (domain.ImageArtifact, []byte, error) {
	// the slot is held per attempt only, so backoff waits never block other images
	res := retry.Do(ctx, n.policy, func(ctx context.Context, attempt int) ([]byte, error) {
		if err := n.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer n.sem.Release(1)
		if attempt > 1 {
			n.log.Debug().Str("ref", ref).Int("attempt", attempt).Msg("retrying image fetch")
		}
		return n.fetcher.Fetch(ctx, ref)
	})
	if !res.OK() {
		return domain.ImageArtifact{}, nil, &Failure{Kind: KindFetch, Ref: ref, Attempts: res.Attempts, Err: res.Err}
	}

	if err := n.sem.Acquire(ctx, 1); err != nil {
		return domain.ImageArtifact{}, nil, &Failure{Kind: KindFetch, Ref: ref, Attempts: res.Attempts, Err: err}
	}
	out, err := Render(res.Value)
	n.sem.Release(1)
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			f.Ref, f.Attempts = ref, res.Attempts
			return domain.ImageArtifact{}, nil, f
		}
		return domain.ImageArtifact{}, nil, &Failure{Kind: KindEncode, Ref: ref, Err: err}
	}
	if err := n.cache.Store(path, out); err != nil {
		return domain.ImageArtifact{}, nil, &Failure{Kind: KindIO, Ref: ref, Err: err}
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		return domain.ImageArtifact{}, nil, &Failure{Kind: KindEncode, Ref: ref, Err: err}
	}
	return domain.ImageArtifact{
		ContentHash: Hash(out),
		LocalPath:   path,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, out, nil
}

// publish uploads each distinct content hash once.
func (n *Normalizer) publish(ctx context.Context, art domain.ImageArtifact, data []byte) (string, error) {
	if u, ok, err := n.index.PublishedURL(ctx, art.ContentHash); err != nil {
		return "", err
	} else if ok {
		return u, nil
	}
	u, err := n.publisher.Publish(ctx, art.ContentHash, art.LocalPath, data)
	if err != nil {
		return "", err
	}
	if err := n.index.SetPublished(ctx, art.ContentHash, u); err != nil {
		return "", err
	}
	return u, nil
}
