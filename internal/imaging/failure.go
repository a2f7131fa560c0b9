package imaging

import "fmt"

type FailureKind string

const (
	KindFetch   FailureKind = "fetch"
	KindDecode  FailureKind = "decode"
	KindEncode  FailureKind = "encode"
	KindIO      FailureKind = "io"
	KindPublish FailureKind = "publish"
)

// Failure describes why one image of a product could not be normalized.
type Failure struct {
	Kind     FailureKind
	Ref      string
	Index    int
	Attempts int
	Err      error
}

func (f *Failure) Error() string {
	if f.Attempts > 1 {
		return fmt.Sprintf("image %d (%s): %s after %d attempts: %v", f.Index+1, f.Ref, f.Kind, f.Attempts, f.Err)
	}
	return fmt.Sprintf("image %d (%s): %s: %v", f.Index+1, f.Ref, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }
