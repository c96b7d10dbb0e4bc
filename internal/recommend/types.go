package recommend

import (
	"context"
	"fmt"

	"marquee/internal/tmdb"
)

// PipelineState is the UI-facing lifecycle of a resolution run.
type PipelineState int

const (
	StateIdle PipelineState = iota
	StateRunning
	StateSucceeded
	StateFailedFallback
)

func (s PipelineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailedFallback:
		return "failed_fallback"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether s ends a run.
func (s PipelineState) Terminal() bool {
	return s == StateSucceeded || s == StateFailedFallback
}

// MarshalText encodes the state using its lowercase name.
func (s PipelineState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a lowercase state name.
func (s *PipelineState) UnmarshalText(text []byte) error {
	for _, candidate := range []PipelineState{StateIdle, StateRunning, StateSucceeded, StateFailedFallback} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown pipeline state %q", text)
}

// Source records where the candidate titles came from.
type Source string

const (
	SourceCompletion Source = "completion"
	SourceFallback   Source = "fallback"
)

// ResolutionResult pairs each candidate title with its catalog matches.
// ResultsByTitle[i] always holds the matches for Titles[i].
type ResolutionResult struct {
	Titles         []string       `json:"titles"`
	ResultsByTitle [][]tmdb.Movie `json:"results_by_title"`
}

// Len returns the number of aligned entries.
func (r ResolutionResult) Len() int {
	return len(r.Titles)
}

// Outcome is the value returned by a single pipeline run.
type Outcome struct {
	Result ResolutionResult `json:"result"`
	State  PipelineState    `json:"state"`
	Source Source           `json:"source"`
	Notice string           `json:"notice,omitempty"`
}

// CompletionSource produces raw completion text for an instruction.
type CompletionSource interface {
	Available() bool
	Complete(ctx context.Context, prompt string) (string, error)
}

// CatalogLookup resolves one title into catalog entries. Implementations
// never fail; problems degrade to an empty slice.
type CatalogLookup interface {
	Lookup(ctx context.Context, title string) []tmdb.Movie
}
