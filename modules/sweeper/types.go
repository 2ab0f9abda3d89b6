package sweeper

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// RunSweepRequest asks for an immediate sweep.
type RunSweepRequest struct{}

// RunSweepResponse carries the sweep report, or the load error.
type RunSweepResponse struct {
	Report Report `json:"report"`
	Error  string `json:"error,omitempty"`
}

// SweepPort triggers sweeps from other modules.
type SweepPort interface {
	RunSweep(ctx context.Context) (*RunSweepResponse, error)
}

type sweepAdapter struct {
	container mono.ServiceContainer
}

// NewSweepAdapter creates a SweepPort backed by the run-sweep service.
func NewSweepAdapter(container mono.ServiceContainer) SweepPort {
	return &sweepAdapter{container: container}
}

func (a *sweepAdapter) RunSweep(ctx context.Context) (*RunSweepResponse, error) {
	var resp RunSweepResponse
	req := RunSweepRequest{}
	if err := helper.CallRequestReplyService(ctx, a.container, "run-sweep", json.Marshal, json.Unmarshal, &req, &resp); err != nil {
		return nil, fmt.Errorf("run-sweep service call failed: %w", err)
	}
	return &resp, nil
}
