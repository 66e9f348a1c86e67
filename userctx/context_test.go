package userctx

import (
	"context"
	"testing"
)

func TestFlowID(t *testing.T) {
	ctx := SetFlowID(context.Background(), "flow-1")
	if got := GetFlowID(ctx); got != "flow-1" {
		t.Errorf("Expected flow-1, got %q", got)
	}

	if got := GetFlowID(context.Background()); got != "" {
		t.Errorf("Expected empty flow ID, got %q", got)
	}
}
