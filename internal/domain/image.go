package domain

// ImageArtifact is a normalized product image on local disk. Two artifacts
// with the same ContentHash are byte-identical.
type ImageArtifact struct {
	ContentHash string `json:"contentHash"`
	LocalPath   string `json:"localPath"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	SourceRef   string `json:"sourceRef"`
	Index       int    `json:"index"`
	Cached      bool   `json:"cached"`
	PublicURL   string `json:"publicUrl,omitempty"`
}
