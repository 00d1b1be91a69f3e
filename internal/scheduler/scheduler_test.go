// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/olegiv/muthawwif-go/internal/listing"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/testutil"
)

func TestNew(t *testing.T) {
	logger := testutil.TestLoggerSilent()

	s := New(nil, logger)
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
	if s.Registry() == nil {
		t.Error("New() scheduler has nil registry")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(nil, testutil.TestLoggerSilent())
	if err := RegisterCoreJobs(s, Deps{}); err != nil {
		t.Fatalf("RegisterCoreJobs: %v", err)
	}

	s.Start()
	s.Stop()
}

func TestRegisterCoreJobs(t *testing.T) {
	s := New(nil, testutil.TestLoggerSilent())
	if err := RegisterCoreJobs(s, Deps{}); err != nil {
		t.Fatalf("RegisterCoreJobs: %v", err)
	}

	jobs := s.Registry().List()
	want := []string{JobExpirePurchases, JobPruneEvents, JobPruneMemory, JobWarmAnalytics}
	if len(jobs) != len(want) {
		t.Fatalf("len(jobs) = %d, want %d", len(jobs), len(want))
	}
	for i, name := range want {
		if jobs[i].Name != name {
			t.Errorf("jobs[%d] = %q, want %q", i, jobs[i].Name, name)
		}
		if jobs[i].IsOverridden {
			t.Errorf("job %s should not be overridden", name)
		}
	}

	// Second registration of the same names fails.
	if err := RegisterCoreJobs(s, Deps{}); err == nil {
		t.Error("expected error registering duplicate jobs")
	}
}

func TestCoreJobs_NilDepsAreNoops(t *testing.T) {
	for _, job := range CoreJobs(Deps{}) {
		if err := job.Run(context.Background()); err != nil {
			t.Errorf("job %s with no deps: %v", job.Name, err)
		}
	}
}

func TestExpirePurchasesJob(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()

	user := testutil.CreateProfile(t, db, "jamaah@example.com", model.RoleUser)
	productID := testutil.CreateProduct(t, db, "Panduan Umrah", "panduan-umrah", 150000)

	old := time.Now().Add(-48 * time.Hour)
	staleID, err := q.CreatePurchase(ctx, user.ID, productID, 150000, "transfer", old)
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	freshID, err := q.CreatePurchase(ctx, user.ID, productID, 150000, "transfer", time.Now())
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}

	job := findJob(t, CoreJobs(Deps{Queries: q, PendingPurchaseTTL: 24 * time.Hour}), JobExpirePurchases)
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	stale, err := q.GetPurchaseByID(ctx, staleID)
	if err != nil {
		t.Fatalf("GetPurchaseByID: %v", err)
	}
	if stale.PaymentStatus != model.PaymentStatusExpired {
		t.Errorf("stale purchase status = %q, want %q", stale.PaymentStatus, model.PaymentStatusExpired)
	}

	fresh, err := q.GetPurchaseByID(ctx, freshID)
	if err != nil {
		t.Fatalf("GetPurchaseByID: %v", err)
	}
	if fresh.PaymentStatus != model.PaymentStatusPending {
		t.Errorf("fresh purchase status = %q, want %q", fresh.PaymentStatus, model.PaymentStatusPending)
	}
}

func TestPruneMemoryJob(t *testing.T) {
	tracker := listing.NewTracker()
	_, ticket := tracker.Begin(context.Background(), "posts")
	ticket.Done()

	job := findJob(t, CoreJobs(Deps{Tracker: tracker}), JobPruneMemory)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// A recent key survives a prune with the default idle window.
	if tracker.Latest("posts") == 0 {
		t.Error("recently used tracker key was pruned")
	}
}

func TestTriggerNow_PropagatesError(t *testing.T) {
	s := New(nil, testutil.TestLoggerSilent())
	boom := errors.New("boom")
	if err := s.Registry().Register(Job{
		Name:     "failing",
		Schedule: "@daily",
		Run:      func(context.Context) error { return boom },
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := s.Registry().TriggerNow(context.Background(), "failing"); !errors.Is(err, boom) {
		t.Errorf("TriggerNow error = %v, want %v", err, boom)
	}
}

func findJob(t *testing.T, jobs []Job, name string) Job {
	t.Helper()
	for _, j := range jobs {
		if j.Name == name {
			return j
		}
	}
	t.Fatalf("job %s not found", name)
	return Job{}
}
