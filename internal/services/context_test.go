package services_test

import (
	"context"
	"testing"

	"ytbili/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithItemID(ctx, 42)
	ctx = services.WithStage(ctx, "transcribing")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.ItemIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected item id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "transcribing" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}

func TestVideoIDContext(t *testing.T) {
	ctx := services.WithVideoID(context.Background(), "dQw4w9WgXcQ")
	if id, ok := services.VideoIDFromContext(ctx); !ok || id != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected video id: %v %v", id, ok)
	}
	if _, ok := services.VideoIDFromContext(services.WithVideoID(context.Background(), "")); ok {
		t.Fatal("expected blank video id to be ignored")
	}
}

func TestLaneAndMissingValues(t *testing.T) {
	ctx := services.WithLane(context.Background(), "publish")
	if lane, ok := services.LaneFromContext(ctx); !ok || lane != "publish" {
		t.Fatalf("unexpected lane: %v %v", lane, ok)
	}
	if _, ok := services.ItemIDFromContext(ctx); ok {
		t.Fatal("expected no item id")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id")
	}
}
