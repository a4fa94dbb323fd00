package dpr

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"p9e.in/sitedpr/models"
)

// DateOnly extracts the literal YYYY-MM-DD day from a raw date value.
// The substring is taken verbatim; round-tripping through a timezone-
// aware parse can shift the day near midnight.
func DateOnly(raw string) string {
	if len(raw) < 10 {
		return raw
	}
	return raw[:10]
}

// Controller is the aggregate orchestrator for one displayed DPR. It
// owns the canonical live view-model, seeds the caption drafts and
// worker-log mirrors on load, and exposes the currently displayed model
// (live or historical) to the presentation layer. Every successful
// write re-fetches the entity it touched instead of patching local
// state.
type Controller struct {
	api *Client

	Reconciler *Reconciler
	Captions   *CaptionEditor
	Gate       *ApprovalGate
	Versions   *VersionController

	mu          sync.Mutex
	dprID       string
	seq         uint64 // load generation; stale responses are discarded
	live        *models.DPR
	notesDraft  string
	notesSaving bool
}

func NewController(api *Client) *Controller {
	return &Controller{
		api:        api,
		Reconciler: NewReconciler(api),
		Captions:   NewCaptionEditor(api),
		Gate:       NewApprovalGate(api),
		Versions:   NewVersionController(api),
	}
}

// Load fetches the report and everything displayed with it: the report
// itself, the caption drafts seeded from its images, and the worker
// logs for its project+date. A response that lands after the controller
// has moved to another report is discarded.
func (c *Controller) Load(ctx context.Context, dprID string) error {
	c.mu.Lock()
	c.dprID = dprID
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	c.Versions.Bind(dprID)

	d, err := c.api.GetDPR(ctx, dprID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.seq != seq || c.dprID != dprID {
		c.mu.Unlock()
		return nil
	}
	c.live = d
	c.notesDraft = d.ProgressNotes
	c.mu.Unlock()

	c.Captions.Seed(d)

	if d.ProjectID != uuid.Nil && d.DPRDate != "" {
		return c.Reconciler.Load(ctx, d.ProjectID.String(), DateOnly(d.DPRDate))
	}
	return nil
}

// Reload re-fetches just the report, leaving worker-log mirrors alone.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	dprID := c.dprID
	seq := c.seq
	c.mu.Unlock()

	d, err := c.api.GetDPR(ctx, dprID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.seq != seq || c.dprID != dprID {
		c.mu.Unlock()
		return nil
	}
	c.live = d
	c.notesDraft = d.ProgressNotes
	c.mu.Unlock()

	c.Captions.Seed(d)
	return nil
}

// Displayed returns the model the user is looking at: the frozen
// snapshot while time-traveling, otherwise the live report.
func (c *Controller) Displayed() *models.DPR {
	if c.Versions.ViewingHistorical() {
		h, _ := c.Versions.Historical()
		return h
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// Live returns the canonical report as last fetched, regardless of any
// historical view.
func (c *Controller) Live() *models.DPR {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// guardMutable rejects writes while a historical snapshot is displayed.
func (c *Controller) guardMutable() error {
	if c.Versions.ViewingHistorical() {
		return &ValidationError{Reason: "historical versions are read-only"}
	}
	return nil
}

// NotesDraft returns the local progress-notes text.
func (c *Controller) NotesDraft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notesDraft
}

// SetNotesDraft updates the local notes text only.
func (c *Controller) SetNotesDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notesDraft = text
}

// SaveNotes persists the notes draft and re-fetches the report. On
// failure the draft survives for a retry.
func (c *Controller) SaveNotes(ctx context.Context) error {
	if err := c.guardMutable(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.notesSaving {
		c.mu.Unlock()
		return nil
	}
	c.notesSaving = true
	dprID := c.dprID
	draft := c.notesDraft
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.notesSaving = false
		c.mu.Unlock()
	}()

	if _, err := c.api.UpdateDPRNotes(ctx, dprID, draft); err != nil {
		return err
	}
	return c.Reload(ctx)
}

// CommitCaption persists one image's caption draft; the editor performs
// the full re-fetch and the controller adopts the fresh model.
func (c *Controller) CommitCaption(ctx context.Context, imageID string) error {
	if err := c.guardMutable(); err != nil {
		return err
	}

	fresh, err := c.Captions.Commit(ctx, imageID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if fresh.ID.String() == c.dprID {
		c.live = fresh
	}
	c.mu.Unlock()
	return nil
}

// AddImage attaches a photo and re-fetches the report.
func (c *Controller) AddImage(ctx context.Context, imageData, caption string) error {
	if err := c.guardMutable(); err != nil {
		return err
	}

	c.mu.Lock()
	dprID := c.dprID
	c.mu.Unlock()

	if err := c.api.AddImage(ctx, dprID, imageData, caption); err != nil {
		return err
	}
	return c.Reload(ctx)
}

// Submit runs the submission gate and re-fetches on success. With fewer
// than the minimum photos this fails before any request is made.
func (c *Controller) Submit(ctx context.Context) error {
	if err := c.guardMutable(); err != nil {
		return err
	}

	c.mu.Lock()
	live := c.live
	dprID := c.dprID
	c.mu.Unlock()
	if live == nil {
		return &NotFoundError{Kind: "DPR", ID: dprID}
	}

	updated, err := c.Gate.Submit(ctx, live)
	if err != nil {
		return err
	}
	if updated == nil {
		return nil
	}
	return c.Reload(ctx)
}

// Approve writes the approved status and re-fetches. Valid from any
// status; re-approval is a no-op revisit.
func (c *Controller) Approve(ctx context.Context) error {
	if err := c.guardMutable(); err != nil {
		return err
	}

	c.mu.Lock()
	live := c.live
	dprID := c.dprID
	c.mu.Unlock()
	if live == nil {
		return &NotFoundError{Kind: "DPR", ID: dprID}
	}

	updated, err := c.Gate.Approve(ctx, live)
	if err != nil {
		return err
	}
	if updated == nil {
		return nil
	}
	return c.Reload(ctx)
}

// Reject writes the rejected status and re-fetches.
func (c *Controller) Reject(ctx context.Context) error {
	if err := c.guardMutable(); err != nil {
		return err
	}

	c.mu.Lock()
	live := c.live
	dprID := c.dprID
	c.mu.Unlock()
	if live == nil {
		return &NotFoundError{Kind: "DPR", ID: dprID}
	}

	updated, err := c.Gate.Reject(ctx, live)
	if err != nil {
		return err
	}
	if updated == nil {
		return nil
	}
	return c.Reload(ctx)
}

// SaveWorkerLog persists one log's mirror; the reconciler handles the
// collection reload.
func (c *Controller) SaveWorkerLog(ctx context.Context, logID string) error {
	if err := c.guardMutable(); err != nil {
		return err
	}
	return c.Reconciler.Save(ctx, logID)
}

// SelectVersion switches the display to a frozen snapshot.
func (c *Controller) SelectVersion(ctx context.Context, version int) error {
	return c.Versions.SelectVersion(ctx, version)
}

// ReturnToLive drops the historical view and re-fetches the canonical
// report.
func (c *Controller) ReturnToLive(ctx context.Context) error {
	c.mu.Lock()
	dprID := c.dprID
	seq := c.seq
	c.mu.Unlock()

	d, err := c.Versions.ReturnToLive(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.seq != seq || c.dprID != dprID {
		c.mu.Unlock()
		return nil
	}
	c.live = d
	c.notesDraft = d.ProgressNotes
	c.mu.Unlock()

	c.Captions.Seed(d)
	return nil
}
