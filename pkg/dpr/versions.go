package dpr

import (
	"context"
	"encoding/json"
	"sync"

	"p9e.in/sitedpr/models"
)

// VersionController switches the displayed model between the live DPR
// and an immutable historical snapshot. Historical views are strictly
// read-only; selecting one never issues a write and never touches the
// canonical live model.
type VersionController struct {
	api *Client

	mu         sync.Mutex
	dprID      string
	historical *models.DPR
	version    int
	viewing    bool
}

func NewVersionController(api *Client) *VersionController {
	return &VersionController{api: api}
}

// Bind points the controller at a report.
func (v *VersionController) Bind(dprID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.dprID != dprID {
		v.dprID = dprID
		v.historical = nil
		v.viewing = false
		v.version = 0
	}
}

// ViewingHistorical gates every mutating affordance upstream.
func (v *VersionController) ViewingHistorical() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.viewing
}

// Historical returns the detached snapshot model and its version, or
// nil when viewing live.
func (v *VersionController) Historical() (*models.DPR, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.historical, v.version
}

// Versions lists the available snapshot versions for the bound report.
func (v *VersionController) Versions(ctx context.Context) ([]VersionMeta, error) {
	v.mu.Lock()
	dprID := v.dprID
	v.mu.Unlock()
	return v.api.ListVersions(ctx, dprID)
}

// SelectVersion fetches a snapshot and makes its frozen payload the
// displayed model. The live DPR is not modified.
func (v *VersionController) SelectVersion(ctx context.Context, version int) error {
	v.mu.Lock()
	dprID := v.dprID
	v.mu.Unlock()

	snap, err := v.api.GetVersion(ctx, dprID, version)
	if err != nil {
		return err
	}

	var frozen models.DPR
	if err := json.Unmarshal(snap.DataJSON, &frozen); err != nil {
		return &RequestError{Op: "parse snapshot", Err: err}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.dprID != dprID {
		// The view moved to another report while the fetch was in
		// flight; a late snapshot must not resurrect the old one.
		return nil
	}
	v.historical = &frozen
	v.version = version
	v.viewing = true
	return nil
}

// ReturnToLive discards the historical view and re-fetches the
// canonical report.
func (v *VersionController) ReturnToLive(ctx context.Context) (*models.DPR, error) {
	v.mu.Lock()
	dprID := v.dprID
	v.historical = nil
	v.version = 0
	v.viewing = false
	v.mu.Unlock()

	return v.api.GetDPR(ctx, dprID)
}
