package loader

import (
	"github.com/Carmen-Shannon/oxy-reveal/engine/model"
)

// SequenceBuilderOption is a functional option for configuring a Sequence via NewSequence.
type SequenceBuilderOption func(*sequence)

// WithOnEnvironment sets the callback that receives the loaded environment before the model stage starts.
//
// Parameters:
//   - fn: the callback
//
// Returns:
//   - SequenceBuilderOption: a function that applies the callback to a sequence
func WithOnEnvironment(fn func(*Environment)) SequenceBuilderOption {
	return func(s *sequence) {
		s.onEnvironment = fn
	}
}

// WithOnModel sets the callback that receives the loaded model.
//
// Parameters:
//   - fn: the callback
//
// Returns:
//   - SequenceBuilderOption: a function that applies the callback to a sequence
func WithOnModel(fn func(model.Model)) SequenceBuilderOption {
	return func(s *sequence) {
		s.onModel = fn
	}
}

// WithProgress replaces the per-asset progress reporter. Defaults to LogProgress; nil disables reporting.
//
// Parameters:
//   - fn: builds a ProgressFunc for an asset source
//
// Returns:
//   - SequenceBuilderOption: a function that applies the reporter to a sequence
func WithProgress(fn func(src string) ProgressFunc) SequenceBuilderOption {
	return func(s *sequence) {
		s.progress = fn
	}
}
