package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/electwix/atbuilder/internal/loader"
	"github.com/electwix/atbuilder/internal/processor"
)

func TestHooks_Chain(t *testing.T) {
	t.Run("chains two hooks", func(t *testing.T) {
		var calls []string

		h1 := Hooks{
			BeforeLoad: func(ctx context.Context, paths []string) error {
				calls = append(calls, "h1")
				return nil
			},
		}

		h2 := Hooks{
			BeforeLoad: func(ctx context.Context, paths []string) error {
				calls = append(calls, "h2")
				return nil
			},
		}

		chained := h1.Chain(h2)
		err := chained.BeforeLoad(context.Background(), nil)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(calls) != 2 || calls[0] != "h1" || calls[1] != "h2" {
			t.Errorf("calls = %v, want [h1 h2]", calls)
		}
	})

	t.Run("first error stops chain", func(t *testing.T) {
		h1 := Hooks{
			BeforeLoad: func(ctx context.Context, paths []string) error {
				return errors.New("h1 error")
			},
		}

		var h2Called bool
		h2 := Hooks{
			BeforeLoad: func(ctx context.Context, paths []string) error {
				h2Called = true
				return nil
			},
		}

		chained := h1.Chain(h2)
		err := chained.BeforeLoad(context.Background(), nil)

		if err == nil || err.Error() != "h1 error" {
			t.Errorf("error = %v, want 'h1 error'", err)
		}

		if h2Called {
			t.Error("h2 should not have been called")
		}
	})

	t.Run("nil hooks", func(t *testing.T) {
		var called bool
		h := Hooks{
			AfterWrite: func(ctx context.Context, summary Summary) error {
				called = true
				return nil
			},
		}

		chained := NoHooks().Chain(h).Chain(NoHooks())
		if err := chained.AfterWrite(context.Background(), Summary{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !called {
			t.Error("hook should have been called")
		}
		if chained.BeforeLoad != nil {
			t.Error("chaining nil hooks should stay nil")
		}
	})
}

func TestPipeline_Run_WithHooks(t *testing.T) {
	configPath := writeWorkspace(t, map[string]string{
		DefaultConfigPath:  basicConfig,
		"records/foo.yaml": fooDoc,
	})

	var hookCalls []string

	hooks := Hooks{
		BeforeLoad: func(ctx context.Context, paths []string) error {
			hookCalls = append(hookCalls, "BeforeLoad")
			if len(paths) != 1 || !strings.HasSuffix(paths[0], "foo.yaml") {
				t.Errorf("BeforeLoad paths = %v", paths)
			}
			return nil
		},
		AfterLoad: func(ctx context.Context, result *loader.Result) error {
			hookCalls = append(hookCalls, "AfterLoad")
			if len(result.Types) != 1 {
				t.Errorf("AfterLoad types = %v", result.Types)
			}
			return nil
		},
		BeforeProcess: func(ctx context.Context, round *processor.Round) error {
			hookCalls = append(hookCalls, "BeforeProcess")
			return nil
		},
		AfterWrite: func(ctx context.Context, summary Summary) error {
			hookCalls = append(hookCalls, "AfterWrite")
			if len(summary.Files) != 1 {
				t.Errorf("AfterWrite files = %v", summary.Files)
			}
			return nil
		},
	}

	pipeline := &Pipeline{
		Env: Environment{
			Writer: &MemoryWriter{},
			Hooks:  hooks,
		},
	}

	_, err := pipeline.Run(context.Background(), RunOptions{ConfigPath: configPath, DryRun: true})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	expected := []string{"BeforeLoad", "AfterLoad", "BeforeProcess", "AfterWrite"}
	if diff := cmp.Diff(expected, hookCalls); diff != "" {
		t.Errorf("hook calls mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_Run_HookError(t *testing.T) {
	configPath := writeWorkspace(t, map[string]string{
		DefaultConfigPath:  basicConfig,
		"records/foo.yaml": fooDoc,
	})

	var afterWrite bool
	writer := &MemoryWriter{}
	pipeline := &Pipeline{
		Env: Environment{
			Writer: writer,
			Hooks: Hooks{
				BeforeProcess: func(ctx context.Context, round *processor.Round) error {
					return errors.New("hook error")
				},
				AfterWrite: func(ctx context.Context, summary Summary) error {
					afterWrite = true
					return nil
				},
			},
		},
	}

	_, err := pipeline.Run(context.Background(), RunOptions{ConfigPath: configPath})
	if err == nil {
		t.Fatal("expected error from hook")
	}

	if !strings.Contains(err.Error(), "hook error") {
		t.Errorf("error = %v, want to contain 'hook error'", err)
	}
	if !afterWrite {
		t.Error("AfterWrite should run after a failed stage")
	}
	if len(writer.Paths()) != 0 {
		t.Errorf("nothing should be written, got %v", writer.Paths())
	}
}
