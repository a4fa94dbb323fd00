package dpr

import (
	"context"
	"testing"

	"p9e.in/sitedpr/models"
)

func TestLoadSeedsEverything(t *testing.T) {
	b := newFakeBackend()
	b.addImages(2)
	b.mu.Lock()
	b.dpr.Images[0].Caption = "east elevation"
	b.mu.Unlock()
	b.addLog("Vendor A", 6)

	c, _ := newTestEngine(t, b)
	if err := c.Load(context.Background(), b.dpr.ID.String()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := c.NotesDraft(); got != "footings poured on grid A" {
		t.Errorf("notes draft = %q, want seeded from the report", got)
	}
	if got := c.Captions.Draft(b.dpr.Images[0].ImageID); got != "east elevation" {
		t.Errorf("caption draft = %q, want seeded from the image", got)
	}
	if got := len(c.Reconciler.Logs()); got != 1 {
		t.Errorf("worker logs = %d, want 1", got)
	}
	if got := b.lastLogQuery.Get("project_id"); got != b.dpr.ProjectID.String() {
		t.Errorf("worker logs fetched for project %q, want the report's project", got)
	}
}

func TestLoadUsesLiteralDateSubstring(t *testing.T) {
	// A raw timestamp must be cut to its first 10 characters, not parsed
	// through a timezone. "2025-03-14T23:30:00+05:30" stays March 14
	// even though it is March 15 in some zones.
	b := newFakeBackend()
	b.mu.Lock()
	b.dpr.DPRDate = "2025-03-14T23:30:00+05:30"
	b.mu.Unlock()

	c, _ := newTestEngine(t, b)
	if err := c.Load(context.Background(), b.dpr.ID.String()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := b.lastLogQuery.Get("date"); got != "2025-03-14" {
		t.Errorf("worker-log date = %q, want the literal substring 2025-03-14", got)
	}
}

func TestDateOnly(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2025-03-14", "2025-03-14"},
		{"2025-03-14T23:30:00Z", "2025-03-14"},
		{"2025-12-31T00:00:00+05:30", "2025-12-31"},
		{"short", "short"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := DateOnly(tt.raw); got != tt.want {
			t.Errorf("DateOnly(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCaptionCommitPreservesOtherDrafts(t *testing.T) {
	b := newFakeBackend()
	b.addImages(2)
	c, _ := newTestEngine(t, b)
	ctx := context.Background()
	if err := c.Load(ctx, b.dpr.ID.String()); err != nil {
		t.Fatalf("load: %v", err)
	}
	img1 := b.dpr.Images[0].ImageID
	img2 := b.dpr.Images[1].ImageID

	c.Captions.SetDraft(img1, "rebar inspection")
	c.Captions.SetDraft(img2, "still typing thi")

	if err := c.CommitCaption(ctx, img1); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if b.captionWrites != 1 {
		t.Errorf("caption writes = %d, want 1", b.captionWrites)
	}
	// The committed caption is now canonical and the display refreshed.
	if got := c.Live().ImageByID(img1).Caption; got != "rebar inspection" {
		t.Errorf("committed caption = %q", got)
	}
	// The other image's half-typed draft survived the re-fetch.
	if got := c.Captions.Draft(img2); got != "still typing thi" {
		t.Errorf("in-flight draft = %q, want preserved across the refetch", got)
	}
	if !c.Captions.Dirty(img2) {
		t.Error("uncommitted draft should still read as dirty")
	}
	if c.Captions.Dirty(img1) {
		t.Error("committed draft should now be clean")
	}
}

func TestCaptionCommitFailureKeepsDraft(t *testing.T) {
	b := newFakeBackend()
	b.addImages(1)
	c, _ := newTestEngine(t, b)
	ctx := context.Background()
	if err := c.Load(ctx, b.dpr.ID.String()); err != nil {
		t.Fatalf("load: %v", err)
	}

	// Commit against an image the server does not know.
	c.Captions.SetDraft("no-such-image", "orphan text")
	if err := c.CommitCaption(ctx, "no-such-image"); err == nil {
		t.Fatal("commit for a missing image should fail")
	}
	if got := c.Captions.Draft("no-such-image"); got != "orphan text" {
		t.Errorf("draft = %q, want kept for retry", got)
	}
}

func TestSaveNotesRefetches(t *testing.T) {
	b := newFakeBackend()
	c, _ := newTestEngine(t, b)
	ctx := context.Background()
	if err := c.Load(ctx, b.dpr.ID.String()); err != nil {
		t.Fatalf("load: %v", err)
	}

	c.SetNotesDraft("column casting done up to level 3")
	fetches := b.getDPRCount
	if err := c.SaveNotes(ctx); err != nil {
		t.Fatalf("save notes: %v", err)
	}

	if b.getDPRCount != fetches+1 {
		t.Errorf("save notes should trigger one re-fetch, got %d", b.getDPRCount-fetches)
	}
	if got := c.Live().ProgressNotes; got != "column casting done up to level 3" {
		t.Errorf("live notes = %q after save", got)
	}
}

func TestNotFoundIsTerminal(t *testing.T) {
	b := newFakeBackend()
	c, _ := newTestEngine(t, b)

	err := c.Load(context.Background(), "00000000-0000-0000-0000-000000000099")
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("loading a missing report: got %v, want NotFoundError", err)
	}
	if c.Live() != nil {
		t.Error("no live model should exist after a failed load")
	}
}

func TestStatusColorMapping(t *testing.T) {
	if models.StatusColor(models.DPRStatusApproved) == models.StatusColor(models.DPRStatusRejected) {
		t.Error("approved and rejected must render with different colors")
	}
	if models.StatusColor("bogus") != models.StatusColor(models.DPRStatusDraft) {
		t.Error("unknown status should fall back to the draft color")
	}
}
