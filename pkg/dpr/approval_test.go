package dpr

import (
	"context"
	"errors"
	"testing"

	"p9e.in/sitedpr/models"
)

func TestSubmitBlocksShortReportsBeforeNetwork(t *testing.T) {
	b := newFakeBackend()
	b.addImages(3)

	c, _ := newTestEngine(t, b)
	ctx := context.Background()
	if err := c.Load(ctx, b.dpr.ID.String()); err != nil {
		t.Fatalf("load: %v", err)
	}

	err := c.Submit(ctx)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if b.submitCount != 0 {
		t.Errorf("submit with %d images issued %d requests, want 0",
			len(b.dpr.Images), b.submitCount)
	}
	if c.Live().Status != models.DPRStatusDraft {
		t.Errorf("status = %s, want draft unchanged", c.Live().Status)
	}
}

func TestSubmitSucceedsAtMinimumImages(t *testing.T) {
	b := newFakeBackend()
	b.addImages(3)

	c, _ := newTestEngine(t, b)
	ctx := context.Background()
	if err := c.Load(ctx, b.dpr.ID.String()); err != nil {
		t.Fatalf("load: %v", err)
	}

	// Short by one: refused. Add the fourth photo: goes through.
	if err := c.Submit(ctx); err == nil {
		t.Fatal("submit with 3 images should fail")
	}
	if err := c.AddImage(ctx, "base64payload", "fourth photo"); err != nil {
		t.Fatalf("add image: %v", err)
	}
	if err := c.Submit(ctx); err != nil {
		t.Fatalf("submit with 4 images: %v", err)
	}

	if b.submitCount != 1 {
		t.Errorf("submit requests = %d, want 1", b.submitCount)
	}
	if got := c.Live().Status; got != models.DPRStatusSubmitted {
		t.Errorf("status = %s, want submitted", got)
	}
}

func TestSubmitFailureLeavesStatusUnchanged(t *testing.T) {
	b := newFakeBackend()
	b.addImages(4)
	b.failSubmit = true

	c, _ := newTestEngine(t, b)
	ctx := context.Background()
	if err := c.Load(ctx, b.dpr.ID.String()); err != nil {
		t.Fatalf("load: %v", err)
	}

	err := c.Submit(ctx)
	var re *RequestError
	if !errors.As(err, &re) {
		t.Fatalf("want RequestError, got %v", err)
	}
	if got := c.Live().Status; got != models.DPRStatusDraft {
		t.Errorf("status flipped optimistically to %s; must stay draft", got)
	}
}

func TestApproveIsIdempotent(t *testing.T) {
	b := newFakeBackend()
	b.addImages(4)
	b.mu.Lock()
	b.dpr.Status = models.DPRStatusSubmitted
	b.mu.Unlock()

	c, _ := newTestEngine(t, b)
	ctx := context.Background()
	if err := c.Load(ctx, b.dpr.ID.String()); err != nil {
		t.Fatalf("load: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := c.Approve(ctx); err != nil {
			t.Fatalf("approve round %d: %v", i+1, err)
		}
		if got := c.Live().Status; got != models.DPRStatusApproved {
			t.Fatalf("round %d: status = %s, want approved", i+1, got)
		}
	}
	if b.statusWrites != 2 {
		t.Errorf("status writes = %d, want 2 (re-approve still issues the write)", b.statusWrites)
	}
}

func TestRejectRequiresSubmitted(t *testing.T) {
	tests := []struct {
		status  models.DPRStatus
		wantErr bool
	}{
		{models.DPRStatusDraft, true},
		{models.DPRStatusSubmitted, false},
		{models.DPRStatusRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			b := newFakeBackend()
			b.addImages(4)
			b.mu.Lock()
			b.dpr.Status = tt.status
			b.mu.Unlock()

			c, _ := newTestEngine(t, b)
			ctx := context.Background()
			if err := c.Load(ctx, b.dpr.ID.String()); err != nil {
				t.Fatalf("load: %v", err)
			}

			err := c.Reject(ctx)
			if tt.wantErr && err == nil {
				t.Errorf("reject from %s should fail", tt.status)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("reject from %s: %v", tt.status, err)
			}
		})
	}
}
