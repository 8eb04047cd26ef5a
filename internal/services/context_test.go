package services_test

import (
	"context"
	"testing"

	"captionsync/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithStage(ctx, "segment")
	ctx = services.WithOperation(ctx, "translation")
	ctx = services.WithSource(ctx, "/tmp/episode.json")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-42" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "segment" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if op, ok := services.OperationFromContext(ctx); !ok || op != "translation" {
		t.Fatalf("unexpected operation: %v %v", op, ok)
	}
	if src, ok := services.SourceFromContext(ctx); !ok || src != "/tmp/episode.json" {
		t.Fatalf("unexpected source: %v %v", src, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}
