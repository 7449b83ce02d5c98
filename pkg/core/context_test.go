package core

import (
	"context"
	"testing"
)

func TestEnsureRunID(t *testing.T) {
	ctx, id := EnsureRunID(context.Background())
	if id == "" {
		t.Fatal("expected a generated run id")
	}

	got, ok := RunID(ctx)
	if !ok || got != id {
		t.Errorf("RunID = %q, %v; want %q", got, ok, id)
	}

	// A second call reuses the existing id.
	_, again := EnsureRunID(ctx)
	if again != id {
		t.Errorf("expected run id to be stable, got %q and %q", id, again)
	}
}
