package dpr

import (
	"context"
	"sync"

	"p9e.in/sitedpr/models"
)

// CaptionEditor holds the per-image caption drafts for one report. A
// draft is local until committed; committing one image refreshes the
// report but keeps other images' unsaved drafts alive.
type CaptionEditor struct {
	api *Client

	mu     sync.Mutex
	dprID  string
	base   map[string]string // caption as last fetched, per image
	drafts map[string]string
}

func NewCaptionEditor(api *Client) *CaptionEditor {
	return &CaptionEditor{
		api:    api,
		base:   make(map[string]string),
		drafts: make(map[string]string),
	}
}

// Seed resets the editor from a freshly fetched report. Drafts that
// still differ from their image's stored caption are carried over;
// everything else reseeds from the server state.
func (e *CaptionEditor) Seed(d *models.DPR) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dprID = d.ID.String()

	newBase := make(map[string]string, len(d.Images))
	newDrafts := make(map[string]string, len(d.Images))
	for _, img := range d.Images {
		newBase[img.ImageID] = img.Caption
		if draft, ok := e.drafts[img.ImageID]; ok && draft != e.base[img.ImageID] {
			newDrafts[img.ImageID] = draft
		} else {
			newDrafts[img.ImageID] = img.Caption
		}
	}
	e.base = newBase
	e.drafts = newDrafts
}

// Draft returns the current draft text for an image.
func (e *CaptionEditor) Draft(imageID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drafts[imageID]
}

// SetDraft updates the local draft only; nothing is persisted.
func (e *CaptionEditor) SetDraft(imageID, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drafts[imageID] = text
}

// Dirty reports whether an image's draft differs from its last-fetched
// caption.
func (e *CaptionEditor) Dirty(imageID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drafts[imageID] != e.base[imageID]
}

// Commit persists one image's draft and returns the refreshed report.
// On failure the draft stays put so the user can retry.
func (e *CaptionEditor) Commit(ctx context.Context, imageID string) (*models.DPR, error) {
	e.mu.Lock()
	dprID := e.dprID
	draft := e.drafts[imageID]
	e.mu.Unlock()

	if _, err := e.api.UpdateImageCaption(ctx, dprID, imageID, draft); err != nil {
		return nil, err
	}

	fresh, err := e.api.GetDPR(ctx, dprID)
	if err != nil {
		return nil, err
	}
	e.Seed(fresh)
	return fresh, nil
}
