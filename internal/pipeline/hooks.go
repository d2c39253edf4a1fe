package pipeline

import (
	"context"

	"github.com/electwix/atbuilder/internal/loader"
	"github.com/electwix/atbuilder/internal/processor"
)

// Hooks provides extension points in the pipeline execution.
// Each hook is called at a specific stage and can modify behavior or perform side effects.
type Hooks struct {
	// BeforeLoad is called with the matched declaration documents before they are read.
	// Return an error to abort the pipeline.
	BeforeLoad func(ctx context.Context, sourcePaths []string) error

	// AfterLoad is called once the documents are loaded, before load errors are checked.
	// Return an error to abort the pipeline.
	AfterLoad func(ctx context.Context, result *loader.Result) error

	// BeforeProcess is called before builders are generated for the round.
	// Return an error to abort the pipeline.
	BeforeProcess func(ctx context.Context, round *processor.Round) error

	// AfterWrite is the final hook, called even if earlier stages failed.
	AfterWrite func(ctx context.Context, summary Summary) error
}

// Chain combines two Hooks, calling h's hooks first, then other's hooks.
// If a hook in h returns an error, other's hook is not called.
func (h Hooks) Chain(other Hooks) Hooks {
	return Hooks{
		BeforeLoad:    chainHook(h.BeforeLoad, other.BeforeLoad),
		AfterLoad:     chainHook(h.AfterLoad, other.AfterLoad),
		BeforeProcess: chainHook(h.BeforeProcess, other.BeforeProcess),
		AfterWrite:    chainHook(h.AfterWrite, other.AfterWrite),
	}
}

// chainHook chains two hooks of the same type.
func chainHook[T any](first, second func(context.Context, T) error) func(context.Context, T) error {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	return func(ctx context.Context, arg T) error {
		if err := first(ctx, arg); err != nil {
			return err
		}
		return second(ctx, arg)
	}
}

// NoHooks returns a Hooks with all nil functions (no-op).
func NoHooks() Hooks {
	return Hooks{}
}
