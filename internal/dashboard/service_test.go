package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type fakeStore struct {
	counts      map[string]int
	pipeline    float64
	pending     int
	overdue     int
	clients     int
	recent      int
	recentLeads []LeadSummary
	upcoming    []TaskSummary
	tasksErr    error
	lastOwner   *uuid.UUID
	ownerCalls  int
}

func (f *fakeStore) CountLeadsByStatus(_ context.Context, ownerID *uuid.UUID) (map[string]int, error) {
	f.lastOwner = ownerID
	f.ownerCalls++
	return f.counts, nil
}

func (f *fakeStore) PipelineValue(_ context.Context, _ *uuid.UUID) (float64, error) {
	return f.pipeline, nil
}

func (f *fakeStore) CountPendingTasks(_ context.Context, _ *uuid.UUID) (int, int, error) {
	if f.tasksErr != nil {
		return 0, 0, f.tasksErr
	}
	return f.pending, f.overdue, nil
}

func (f *fakeStore) CountClients(_ context.Context) (int, error) {
	return f.clients, nil
}

func (f *fakeStore) RecentInteractions(_ context.Context, _ *uuid.UUID) (int, error) {
	return f.recent, nil
}

func (f *fakeStore) RecentLeads(_ context.Context, _ *uuid.UUID) ([]LeadSummary, error) {
	return f.recentLeads, nil
}

func (f *fakeStore) UpcomingTasks(_ context.Context, _ *uuid.UUID) ([]TaskSummary, error) {
	return f.upcoming, nil
}

func TestGetSummary_AggregatesCounters(t *testing.T) {
	store := &fakeStore{
		counts:      map[string]int{"new": 4, "qualified": 2, "closed": 3, "lost": 1},
		pipeline:    1234.567,
		pending:     5,
		overdue:     2,
		clients:     9,
		recent:      7,
		recentLeads: []LeadSummary{{Title: "Expansion deal"}},
		upcoming:    []TaskSummary{{Title: "Send proposal"}},
	}
	svc := NewService(store)

	summary, err := svc.GetSummary(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.TotalLeads != 10 {
		t.Fatalf("expected 10 total leads, got %d", summary.TotalLeads)
	}
	if summary.OpenLeads != 6 {
		t.Fatalf("closed and lost must not count as open, got %d", summary.OpenLeads)
	}
	if summary.PipelineValue != 1234.57 {
		t.Fatalf("expected rounded pipeline value, got %v", summary.PipelineValue)
	}
	if summary.PendingTasks != 5 || summary.OverdueTasks != 2 {
		t.Fatalf("task counters wrong: %+v", summary)
	}
	if summary.TotalClients != 9 || summary.RecentInteractions != 7 {
		t.Fatalf("client or interaction counters wrong: %+v", summary)
	}
	if len(summary.RecentLeads) != 1 || summary.RecentLeads[0].Title != "Expansion deal" {
		t.Fatalf("recent leads missing: %+v", summary.RecentLeads)
	}
	if len(summary.UpcomingTasks) != 1 || summary.UpcomingTasks[0].Title != "Send proposal" {
		t.Fatalf("upcoming tasks missing: %+v", summary.UpcomingTasks)
	}
}

func TestGetSummary_OneFailingQueryFailsTheSummary(t *testing.T) {
	store := &fakeStore{counts: map[string]int{}, tasksErr: errors.New("connection reset")}
	svc := NewService(store)

	if _, err := svc.GetSummary(context.Background(), nil); err == nil {
		t.Fatal("expected error when a counter query fails")
	}
}

func TestGetSummary_ForwardsOwnerFilter(t *testing.T) {
	store := &fakeStore{counts: map[string]int{}}
	svc := NewService(store)

	owner := uuid.New()
	if _, err := svc.GetSummary(context.Background(), &owner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastOwner == nil || *store.lastOwner != owner {
		t.Fatalf("owner filter not forwarded: %v", store.lastOwner)
	}
}
