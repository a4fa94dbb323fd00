package dpr

import (
	"context"
	"sync"

	"p9e.in/sitedpr/models"
)

// Reconciler maintains the editable mirrors of the worker logs shown
// alongside a DPR. Each log's mirror is independently dirty and
// independently saving: touching one log never disturbs another's
// edits or save state.
type Reconciler struct {
	api *Client

	mu        sync.Mutex
	projectID string
	date      string
	logs      []models.WorkerLog // canonical, as last fetched
	mirror    map[string][]models.WorkerLogEntry
	dirty     map[string]bool
	saving    map[string]bool
}

func NewReconciler(api *Client) *Reconciler {
	return &Reconciler{
		api:    api,
		mirror: make(map[string][]models.WorkerLogEntry),
		dirty:  make(map[string]bool),
		saving: make(map[string]bool),
	}
}

// Load fetches all logs for the project+date and seeds the mirrors.
// Mirrors with unsaved edits are preserved so a reload triggered by one
// log's save cannot discard another log's pending work.
func (r *Reconciler) Load(ctx context.Context, projectID, date string) error {
	logs, err := r.api.ListWorkerLogs(ctx, projectID, date)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.projectID = projectID
	r.date = date
	r.logs = logs

	seen := make(map[string]bool, len(logs))
	for _, l := range logs {
		id := l.ID.String()
		seen[id] = true
		if r.dirty[id] {
			continue
		}
		r.mirror[id] = seedMirror(l.Entries)
	}
	for id := range r.mirror {
		if !seen[id] {
			delete(r.mirror, id)
			delete(r.dirty, id)
			delete(r.saving, id)
		}
	}
	return nil
}

// seedMirror copies a log's rows and applies the legacy purpose→remarks
// mapping so the grid always edits the modern field.
func seedMirror(entries []models.WorkerLogEntry) []models.WorkerLogEntry {
	out := make([]models.WorkerLogEntry, len(entries))
	copy(out, entries)
	for i := range out {
		out[i].Normalize()
	}
	return out
}

// Logs returns the canonical collection as last fetched. Totals come
// from here, never from the mirrors.
func (r *Reconciler) Logs() []models.WorkerLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.WorkerLog, len(r.logs))
	copy(out, r.logs)
	return out
}

// Mirror returns a copy of one log's editable rows.
func (r *Reconciler) Mirror(logID string) []models.WorkerLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, ok := r.mirror[logID]
	if !ok {
		return nil
	}
	out := make([]models.WorkerLogEntry, len(entries))
	copy(out, entries)
	return out
}

func (r *Reconciler) Dirty(logID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty[logID]
}

func (r *Reconciler) Saving(logID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saving[logID]
}

// UpdateEntry applies an edit to one row of one log's mirror and marks
// that log dirty. Other logs are untouched.
func (r *Reconciler) UpdateEntry(logID string, index int, apply func(*models.WorkerLogEntry)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, ok := r.mirror[logID]
	if !ok {
		return &NotFoundError{Kind: "worker log", ID: logID}
	}
	if index < 0 || index >= len(entries) {
		return &ValidationError{Field: "index", Reason: "row out of range"}
	}
	apply(&entries[index])
	r.mirror[logID] = entries
	r.dirty[logID] = true
	return nil
}

// AddEntry appends a zero-valued row to one log's mirror.
func (r *Reconciler) AddEntry(logID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, ok := r.mirror[logID]
	if !ok {
		return &NotFoundError{Kind: "worker log", ID: logID}
	}
	r.mirror[logID] = append(entries, models.WorkerLogEntry{})
	r.dirty[logID] = true
	return nil
}

// RemoveEntry deletes one row by position.
func (r *Reconciler) RemoveEntry(logID string, index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, ok := r.mirror[logID]
	if !ok {
		return &NotFoundError{Kind: "worker log", ID: logID}
	}
	if index < 0 || index >= len(entries) {
		return &ValidationError{Field: "index", Reason: "row out of range"}
	}
	r.mirror[logID] = append(entries[:index], entries[index+1:]...)
	r.dirty[logID] = true
	return nil
}

// Save persists one log's mirror. A save already in flight for that log
// makes this a no-op rather than a queued retry; saves on other logs
// proceed independently. On success the whole collection is reloaded so
// totals stay server-authoritative and the saved log's mirror reseeds
// from canonical state. On failure the mirror is left exactly as the
// user edited it.
func (r *Reconciler) Save(ctx context.Context, logID string) error {
	r.mu.Lock()
	if r.saving[logID] {
		r.mu.Unlock()
		return nil
	}
	entries, ok := r.mirror[logID]
	if !ok {
		r.mu.Unlock()
		return &NotFoundError{Kind: "worker log", ID: logID}
	}
	snapshot := make([]models.WorkerLogEntry, len(entries))
	copy(snapshot, entries)
	r.saving[logID] = true
	projectID, date := r.projectID, r.date
	r.mu.Unlock()

	_, err := r.api.SaveWorkerLog(ctx, logID, snapshot)

	r.mu.Lock()
	r.saving[logID] = false
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.dirty[logID] = false
	r.mu.Unlock()

	return r.Load(ctx, projectID, date)
}
