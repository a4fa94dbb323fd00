package dpr

import (
	"context"
	"sync"

	"p9e.in/sitedpr/models"
)

// ApprovalGate validates and executes DPR status transitions. Nothing
// here mutates local state speculatively; the returned report from the
// server is the only source of the new status.
type ApprovalGate struct {
	api *Client

	mu     sync.Mutex
	saving bool
}

func NewApprovalGate(api *Client) *ApprovalGate {
	return &ApprovalGate{api: api}
}

// Saving reports whether a transition is in flight.
func (g *ApprovalGate) Saving() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saving
}

// begin marks the gate busy. Returns false when an operation is already
// in flight, in which case the caller no-ops.
func (g *ApprovalGate) begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.saving {
		return false
	}
	g.saving = true
	return true
}

func (g *ApprovalGate) end() {
	g.mu.Lock()
	g.saving = false
	g.mu.Unlock()
}

// Submit moves a draft to submitted. The image minimum is checked here
// first; short reports fail with a ValidationError and no request is
// issued. A submit already in flight makes this a no-op.
func (g *ApprovalGate) Submit(ctx context.Context, d *models.DPR) (*models.DPR, error) {
	if len(d.Images) < models.MinSubmitImages {
		return nil, &ValidationError{
			Field:  "images",
			Reason: "a DPR needs at least 4 photos before it can be submitted",
		}
	}
	if d.Status != models.DPRStatusDraft {
		return nil, &ValidationError{
			Field:  "status",
			Reason: "only draft DPRs can be submitted",
		}
	}

	if !g.begin() {
		return nil, nil
	}
	defer g.end()

	return g.api.SubmitDPR(ctx, d.ID.String())
}

// Approve writes the approved status. It is available regardless of
// current status; re-approving an approved report is a harmless revisit.
func (g *ApprovalGate) Approve(ctx context.Context, d *models.DPR) (*models.DPR, error) {
	if !g.begin() {
		return nil, nil
	}
	defer g.end()

	return g.api.UpdateDPRStatus(ctx, d.ID.String(), models.DPRStatusApproved)
}

// Reject writes the rejected status for a submitted report.
func (g *ApprovalGate) Reject(ctx context.Context, d *models.DPR) (*models.DPR, error) {
	if !models.CanTransition(d.Status, models.DPRStatusRejected) {
		return nil, &ValidationError{
			Field:  "status",
			Reason: "only submitted DPRs can be rejected",
		}
	}

	if !g.begin() {
		return nil, nil
	}
	defer g.end()

	return g.api.UpdateDPRStatus(ctx, d.ID.String(), models.DPRStatusRejected)
}
