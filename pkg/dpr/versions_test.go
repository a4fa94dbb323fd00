package dpr

import (
	"context"
	"testing"

	"p9e.in/sitedpr/models"
)

func TestSelectVersionDisplaysSnapshotWithoutTouchingLive(t *testing.T) {
	b := newFakeBackend()
	b.addImages(4)
	b.snapshot(1)
	b.mu.Lock()
	b.dpr.ProgressNotes = "updated after v1"
	b.dpr.Version = 2
	b.mu.Unlock()
	b.snapshot(2)

	c, _ := newTestEngine(t, b)
	ctx := context.Background()
	if err := c.Load(ctx, b.dpr.ID.String()); err != nil {
		t.Fatalf("load: %v", err)
	}
	liveBefore := c.Live()

	if err := c.SelectVersion(ctx, 1); err != nil {
		t.Fatalf("select version: %v", err)
	}

	if !c.Versions.ViewingHistorical() {
		t.Error("viewingHistorical should be true after selecting a version")
	}
	displayed := c.Displayed()
	if displayed.Version != 1 {
		t.Errorf("displayed version = %d, want 1", displayed.Version)
	}
	if displayed.ProgressNotes != "footings poured on grid A" {
		t.Errorf("displayed notes = %q, want the frozen v1 text", displayed.ProgressNotes)
	}
	if c.Live() != liveBefore {
		t.Error("selecting a version must not replace the canonical live model")
	}
	if c.Live().Version != 2 {
		t.Errorf("live version = %d, want 2 untouched", c.Live().Version)
	}
}

func TestHistoricalViewRefusesWrites(t *testing.T) {
	b := newFakeBackend()
	b.addImages(4)
	b.snapshot(1)

	c, _ := newTestEngine(t, b)
	ctx := context.Background()
	if err := c.Load(ctx, b.dpr.ID.String()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := c.SelectVersion(ctx, 1); err != nil {
		t.Fatalf("select version: %v", err)
	}

	submitsBefore := b.submitCount
	statusBefore := b.statusWrites

	ops := map[string]error{
		"save notes": c.SaveNotes(ctx),
		"submit":     c.Submit(ctx),
		"approve":    c.Approve(ctx),
		"add image":  c.AddImage(ctx, "x", "y"),
	}
	for name, err := range ops {
		if _, ok := err.(*ValidationError); !ok {
			t.Errorf("%s on a historical view: got %v, want ValidationError", name, err)
		}
	}
	if b.submitCount != submitsBefore || b.statusWrites != statusBefore {
		t.Error("historical view issued a write")
	}
}

func TestReturnToLiveRefetches(t *testing.T) {
	b := newFakeBackend()
	b.addImages(4)
	b.snapshot(1)

	c, _ := newTestEngine(t, b)
	ctx := context.Background()
	if err := c.Load(ctx, b.dpr.ID.String()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := c.SelectVersion(ctx, 1); err != nil {
		t.Fatalf("select version: %v", err)
	}

	// The live DPR changes server-side while we look at history.
	b.mu.Lock()
	b.dpr.ProgressNotes = "changed while time-traveling"
	b.mu.Unlock()
	fetches := b.getDPRCount

	if err := c.ReturnToLive(ctx); err != nil {
		t.Fatalf("return to live: %v", err)
	}

	if c.Versions.ViewingHistorical() {
		t.Error("viewingHistorical should clear on return to live")
	}
	if b.getDPRCount != fetches+1 {
		t.Errorf("return to live fetched %d times, want exactly 1", b.getDPRCount-fetches)
	}
	if got := c.Displayed().ProgressNotes; got != "changed while time-traveling" {
		t.Errorf("displayed notes = %q, want the fresh server state", got)
	}
}

func TestSnapshotChecksumsVerify(t *testing.T) {
	b := newFakeBackend()
	b.addImages(4)
	b.snapshot(1)

	c, _ := newTestEngine(t, b)
	ctx := context.Background()
	if err := c.Load(ctx, b.dpr.ID.String()); err != nil {
		t.Fatalf("load: %v", err)
	}

	snap, err := c.api.GetVersion(ctx, b.dpr.ID.String(), 1)
	if err != nil {
		t.Fatalf("get version: %v", err)
	}
	if !snap.VerifyChecksum() {
		t.Error("stored checksum does not match payload")
	}
	if snap.DataChecksum != models.SnapshotChecksum(snap.DataJSON) {
		t.Error("checksum helper disagrees with stored digest")
	}
}
