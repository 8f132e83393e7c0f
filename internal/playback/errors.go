// ABOUTME: Load-granularity error wrapper
// ABOUTME: Carries decoder failures past the synthetic fallback for observability
package playback

import "fmt"

// LoadFailure wraps a decoder error at dataset-load granularity. The
// controller never propagates it as fatal: by the time a caller sees it,
// the synthetic fallback is already installed.
type LoadFailure struct {
	Err error
}

func (e *LoadFailure) Error() string {
	return fmt.Sprintf("load failed: %v", e.Err)
}

func (e *LoadFailure) Unwrap() error { return e.Err }
