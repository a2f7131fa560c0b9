package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"wholesale-catalog/internal/domain"
)

// fingerprint hashes a payload without the fields that change between runs
// of an identical feed: source line numbers and cache hits.
func fingerprint(payload any) (string, error) {
	switch p := payload.(type) {
	case domain.ProductPayload:
		p.Record.Line = 0
		p.Images = stable(p.Images)
		payload = p
	case domain.GroupPayload:
		members := make([]domain.MemberPayload, len(p.Members))
		for i, m := range p.Members {
			m.Record.Line = 0
			m.Images = stable(m.Images)
			members[i] = m
		}
		p.Members = members
		p.Group.Members = nil
		payload = p
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func stable(images []domain.ImageArtifact) []domain.ImageArtifact {
	out := make([]domain.ImageArtifact, len(images))
	for i, img := range images {
		img.Cached = false
		out[i] = img
	}
	return out
}

// claimSet guards against two sink writes for the same barcode in one run.
type claimSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newClaimSet() *claimSet {
	return &claimSet{seen: map[string]struct{}{}}
}

// claim takes all barcodes or none.
func (c *claimSet) claim(barcodes ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range barcodes {
		if _, ok := c.seen[b]; ok {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyWritten, b)
		}
	}
	for _, b := range barcodes {
		c.seen[b] = struct{}{}
	}
	return nil
}
