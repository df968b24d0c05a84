package loyalty

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func createTestEvent(t *testing.T, store *SQLiteStore, slug string, mutate func(*Event)) Event {
	t.Helper()
	now := time.Now().UTC()
	ev := Event{
		Slug:      slug,
		Title:     "Test Event",
		EventType: "challenge",
		StartsAt:  now.AddDate(0, 0, -1),
		EndsAt:    now.AddDate(0, 0, 7),
		Rewards:   json.RawMessage(`{"points": 100, "badge": "champion"}`),
		Status:    "active",
	}
	if mutate != nil {
		mutate(&ev)
	}
	if err := store.CreateEvent(context.Background(), &ev); err != nil {
		t.Fatalf("creating event %q: %v", slug, err)
	}
	return ev
}

func TestJoinEvent(t *testing.T) {
	store := newTestStore(t)
	user := newTestUser(t, store, 4001)
	svc := NewEventService(store, nil)
	createTestEvent(t, store, "autumn-cup", nil)

	participant, err := svc.Join(context.Background(), user.ID, "autumn-cup")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if participant.Status != ParticipantJoined {
		t.Errorf("status = %q, want %q", participant.Status, ParticipantJoined)
	}

	ev, err := svc.EventBySlug(context.Background(), "autumn-cup")
	if err != nil {
		t.Fatalf("EventBySlug: %v", err)
	}
	if ev.CurrentParticipants != 1 {
		t.Errorf("current participants = %d, want 1", ev.CurrentParticipants)
	}
}

func TestJoinEventTwice(t *testing.T) {
	store := newTestStore(t)
	user := newTestUser(t, store, 4002)
	svc := NewEventService(store, nil)
	createTestEvent(t, store, "autumn-cup", nil)

	if _, err := svc.Join(context.Background(), user.ID, "autumn-cup"); err != nil {
		t.Fatalf("first Join: %v", err)
	}
	_, err := svc.Join(context.Background(), user.ID, "autumn-cup")
	if !IsCode(err, CodeAlreadyJoined) {
		t.Fatalf("err = %v, want code %s", err, CodeAlreadyJoined)
	}
}

func TestJoinEventGates(t *testing.T) {
	store := newTestStore(t)
	user := newTestUser(t, store, 4003)
	svc := NewEventService(store, nil)

	createTestEvent(t, store, "draft-event", func(ev *Event) { ev.Status = "draft" })
	createTestEvent(t, store, "ended-event", func(ev *Event) {
		ev.StartsAt = time.Now().UTC().AddDate(0, 0, -14)
		ev.EndsAt = time.Now().UTC().AddDate(0, 0, -7)
	})
	createTestEvent(t, store, "vip-event", func(ev *Event) {
		ev.Requirements = json.RawMessage(`{"min_level": 5}`)
	})

	tests := []struct {
		slug string
		code string
	}{
		{"no-such-event", CodeEventNotFound},
		{"draft-event", CodeEventNotActive},
		{"ended-event", CodeEventEnded},
		{"vip-event", CodeRequirementsNotMet},
	}
	for _, tt := range tests {
		if _, err := svc.Join(context.Background(), user.ID, tt.slug); !IsCode(err, tt.code) {
			t.Errorf("%s: err = %v, want code %s", tt.slug, err, tt.code)
		}
	}
}

func TestJoinEventCapacity(t *testing.T) {
	store := newTestStore(t)
	first := newTestUser(t, store, 4004)
	second := newTestUser(t, store, 4005)
	svc := NewEventService(store, nil)
	one := 1
	createTestEvent(t, store, "tiny-event", func(ev *Event) { ev.MaxParticipants = &one })

	if _, err := svc.Join(context.Background(), first.ID, "tiny-event"); err != nil {
		t.Fatalf("first Join: %v", err)
	}
	_, err := svc.Join(context.Background(), second.ID, "tiny-event")
	if !IsCode(err, CodeEventFull) {
		t.Fatalf("err = %v, want code %s", err, CodeEventFull)
	}
}

func TestUpdateProgressCompletes(t *testing.T) {
	store := newTestStore(t)
	user := newTestUser(t, store, 4006)
	svc := NewEventService(store, nil)
	createTestEvent(t, store, "tour", func(ev *Event) {
		ev.Requirements = json.RawMessage(`{"checkins": [{"location_id": 1, "count": 2}, {"location_id": 2, "count": 1}]}`)
	})

	participant, err := svc.Join(context.Background(), user.ID, "tour")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	// One of two goals satisfied.
	updated, err := svc.UpdateProgress(context.Background(), user.ID, participant.ID, map[string]int{"location_2": 1})
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if updated.ProgressPercentage != 50 {
		t.Errorf("progress = %d%%, want 50", updated.ProgressPercentage)
	}
	if updated.Status != ParticipantJoined {
		t.Errorf("status = %q, want still joined", updated.Status)
	}

	// The second update merges with the stored document.
	updated, err = svc.UpdateProgress(context.Background(), user.ID, participant.ID, map[string]int{"location_1": 2})
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if updated.ProgressPercentage != 100 {
		t.Errorf("progress = %d%%, want 100", updated.ProgressPercentage)
	}
	if updated.Status != ParticipantCompleted || updated.CompletedAt == nil {
		t.Errorf("status = %q completedAt = %v, want completed with timestamp", updated.Status, updated.CompletedAt)
	}
}

func TestClaimRewards(t *testing.T) {
	store := newTestStore(t)
	user := newTestUser(t, store, 4007)
	svc := NewEventService(store, nil)
	createTestEvent(t, store, "giveaway", nil)

	participant, err := svc.Join(context.Background(), user.ID, "giveaway")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	// Not completed yet.
	if _, err := svc.ClaimRewards(context.Background(), user.ID, participant.ID); !IsCode(err, CodeNotCompleted) {
		t.Fatalf("err = %v, want code %s", err, CodeNotCompleted)
	}

	// An event without requirements completes on the first progress update.
	if _, err := svc.UpdateProgress(context.Background(), user.ID, participant.ID, nil); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	rewards, err := svc.ClaimRewards(context.Background(), user.ID, participant.ID)
	if err != nil {
		t.Fatalf("ClaimRewards: %v", err)
	}
	var doc struct {
		Points int    `json:"points"`
		Badge  string `json:"badge"`
	}
	if err := json.Unmarshal(rewards, &doc); err != nil {
		t.Fatalf("decoding rewards: %v", err)
	}
	if doc.Points != 100 || doc.Badge != "champion" {
		t.Errorf("rewards = %+v, want the event's descriptor verbatim", doc)
	}

	if _, err := svc.ClaimRewards(context.Background(), user.ID, participant.ID); !IsCode(err, CodeAlreadyClaimed) {
		t.Fatalf("second claim err = %v, want code %s", err, CodeAlreadyClaimed)
	}

	stored, err := store.ParticipantByID(context.Background(), participant.ID)
	if err != nil {
		t.Fatalf("ParticipantByID: %v", err)
	}
	if stored.Status != ParticipantRewarded || !stored.RewardsClaimed {
		t.Errorf("stored = %+v, want rewarded", stored)
	}
}

func TestParticipationHiddenFromOthers(t *testing.T) {
	store := newTestStore(t)
	owner := newTestUser(t, store, 4008)
	other := newTestUser(t, store, 4009)
	svc := NewEventService(store, nil)
	createTestEvent(t, store, "autumn-cup", nil)

	participant, err := svc.Join(context.Background(), owner.ID, "autumn-cup")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	if _, err := svc.UpdateProgress(context.Background(), other.ID, participant.ID, nil); !IsCode(err, CodeParticipationNotFound) {
		t.Errorf("UpdateProgress err = %v, want code %s", err, CodeParticipationNotFound)
	}
	if _, err := svc.ClaimRewards(context.Background(), other.ID, participant.ID); !IsCode(err, CodeParticipationNotFound) {
		t.Errorf("ClaimRewards err = %v, want code %s", err, CodeParticipationNotFound)
	}
}

func TestListEventsFilters(t *testing.T) {
	store := newTestStore(t)
	svc := NewEventService(store, nil)

	createTestEvent(t, store, "running-now", nil)
	createTestEvent(t, store, "next-month", func(ev *Event) {
		ev.StartsAt = time.Now().UTC().AddDate(0, 1, 0)
		ev.EndsAt = time.Now().UTC().AddDate(0, 1, 7)
	})
	createTestEvent(t, store, "long-gone", func(ev *Event) {
		ev.StartsAt = time.Now().UTC().AddDate(0, -2, 0)
		ev.EndsAt = time.Now().UTC().AddDate(0, -1, 0)
	})
	createTestEvent(t, store, "featured-now", func(ev *Event) { ev.IsFeatured = true })

	tests := []struct {
		status   string
		featured bool
		want     []string
		exclude  []string
	}{
		{"active", false, []string{"running-now", "featured-now"}, []string{"next-month", "long-gone"}},
		{"upcoming", false, []string{"next-month"}, []string{"running-now", "long-gone"}},
		{"past", false, []string{"long-gone"}, []string{"running-now", "next-month"}},
		{"active", true, []string{"featured-now"}, []string{"running-now"}},
	}
	for _, tt := range tests {
		events, err := svc.ListEvents(context.Background(), tt.status, "", tt.featured)
		if err != nil {
			t.Fatalf("ListEvents %s: %v", tt.status, err)
		}
		got := map[string]bool{}
		for _, ev := range events {
			got[ev.Slug] = true
		}
		for _, slug := range tt.want {
			if !got[slug] {
				t.Errorf("%s featured=%v: missing %s", tt.status, tt.featured, slug)
			}
		}
		for _, slug := range tt.exclude {
			if got[slug] {
				t.Errorf("%s featured=%v: unexpected %s", tt.status, tt.featured, slug)
			}
		}
	}
}
