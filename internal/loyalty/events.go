package loyalty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventService evaluates event participation: join gates, progress merging,
// and one-shot reward claims. Reward fulfillment is external; the claim
// returns the event's reward descriptor verbatim.
type EventService struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

func NewEventService(store Store, notifier Notifier) *EventService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &EventService{store: store, notifier: notifier, now: time.Now}
}

func (s *EventService) ListEvents(ctx context.Context, status, eventType string, featuredOnly bool) ([]Event, error) {
	return s.store.ListEvents(ctx, EventFilter{
		Status:       status,
		EventType:    eventType,
		FeaturedOnly: featuredOnly,
		Now:          s.now().UTC(),
	})
}

func (s *EventService) EventBySlug(ctx context.Context, slug string) (*Event, error) {
	ev, err := s.store.EventBySlug(ctx, slug)
	if errors.Is(err, ErrNotFound) {
		return nil, newError(CodeEventNotFound, "event not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading event %q: %w", slug, err)
	}
	return &ev, nil
}

// Join enforces the join gates in order: event active, not ended, not already
// joined, capacity available, requirements met. The duplicate-join and
// capacity races are settled by the storage layer inside AddParticipant.
func (s *EventService) Join(ctx context.Context, userID int64, slug string) (*EventParticipant, error) {
	ev, err := s.EventBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if ev.Status != "active" {
		return nil, newError(CodeEventNotActive, "event is not active")
	}
	if ev.EndsAt.Before(now) {
		return nil, newError(CodeEventEnded, "event has ended")
	}

	existing, err := s.store.Participation(ctx, ev.ID, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("loading participation: %w", err)
	}
	if existing != nil {
		return nil, newError(CodeAlreadyJoined, "you have already joined this event")
	}

	if ev.MaxParticipants != nil && ev.CurrentParticipants >= *ev.MaxParticipants {
		return nil, newError(CodeEventFull, "event has reached maximum participants")
	}

	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user %d: %w", userID, err)
	}
	req, err := ParseRequirements(ev.Requirements)
	if err != nil {
		return nil, fmt.Errorf("parsing requirements of %q: %w", ev.Slug, err)
	}
	if !req.MetBy(user) {
		return nil, newError(CodeRequirementsNotMet, "you don't meet the requirements to join this event")
	}

	participant := &EventParticipant{
		ID:       uuid.NewString(),
		EventID:  ev.ID,
		UserID:   userID,
		Status:   ParticipantJoined,
		Progress: json.RawMessage("{}"),
		JoinedAt: now,
	}
	err = s.store.AddParticipant(ctx, participant)
	if errors.Is(err, ErrDuplicate) {
		return nil, newError(CodeAlreadyJoined, "you have already joined this event")
	}
	if errors.Is(err, ErrCapacityReached) {
		return nil, newError(CodeEventFull, "event has reached maximum participants")
	}
	if err != nil {
		return nil, fmt.Errorf("joining event: %w", err)
	}
	return participant, nil
}

// UpdateProgress merges a partial progress document into the stored one
// (key-wise overwrite) and recomputes the completion percentage. Crossing
// 100% completes the participation and timestamps it.
func (s *EventService) UpdateProgress(ctx context.Context, userID int64, participationID string, delta map[string]int) (*EventParticipant, error) {
	participant, err := s.participantOf(ctx, userID, participationID)
	if err != nil {
		return nil, err
	}

	ev, err := s.store.EventByID(ctx, participant.EventID)
	if err != nil {
		return nil, fmt.Errorf("loading event %s: %w", participant.EventID, err)
	}

	progress := map[string]int{}
	if len(participant.Progress) > 0 {
		if err := json.Unmarshal(participant.Progress, &progress); err != nil {
			return nil, fmt.Errorf("decoding stored progress: %w", err)
		}
	}
	for k, v := range delta {
		progress[k] = v
	}

	req, err := ParseRequirements(ev.Requirements)
	if err != nil {
		return nil, fmt.Errorf("parsing requirements of %q: %w", ev.Slug, err)
	}

	raw, err := json.Marshal(progress)
	if err != nil {
		return nil, fmt.Errorf("encoding progress: %w", err)
	}
	participant.Progress = raw
	participant.ProgressPercentage = req.ProgressPercent(progress)

	completed := false
	if participant.ProgressPercentage >= 100 && participant.Status == ParticipantJoined {
		now := s.now().UTC()
		participant.Status = ParticipantCompleted
		participant.CompletedAt = &now
		completed = true
	}

	if err := s.store.SaveParticipant(ctx, &participant); err != nil {
		return nil, fmt.Errorf("saving participation: %w", err)
	}

	if completed {
		s.notifier.Notify(ctx, eventCompletedFact(userID, ev))
	}
	return &participant, nil
}

// ClaimRewards transitions a completed participation to rewarded, exactly
// once, and returns the event's reward descriptor uninterpreted.
func (s *EventService) ClaimRewards(ctx context.Context, userID int64, participationID string) (json.RawMessage, error) {
	participant, err := s.participantOf(ctx, userID, participationID)
	if err != nil {
		return nil, err
	}

	if participant.RewardsClaimed {
		return nil, newError(CodeAlreadyClaimed, "rewards already claimed")
	}
	if participant.Status != ParticipantCompleted {
		return nil, newError(CodeNotCompleted, "event not completed yet")
	}

	ev, err := s.store.EventByID(ctx, participant.EventID)
	if err != nil {
		return nil, fmt.Errorf("loading event %s: %w", participant.EventID, err)
	}

	now := s.now().UTC()
	participant.RewardsClaimed = true
	participant.RewardsClaimedAt = &now
	participant.Status = ParticipantRewarded

	if err := s.store.SaveParticipant(ctx, &participant); err != nil {
		return nil, fmt.Errorf("saving participation: %w", err)
	}
	return ev.Rewards, nil
}

// participantOf loads a participation and hides other users' rows behind
// participation_not_found.
func (s *EventService) participantOf(ctx context.Context, userID int64, participationID string) (EventParticipant, error) {
	participant, err := s.store.ParticipantByID(ctx, participationID)
	if errors.Is(err, ErrNotFound) {
		return EventParticipant{}, newError(CodeParticipationNotFound, "participation not found")
	}
	if err != nil {
		return EventParticipant{}, fmt.Errorf("loading participation %s: %w", participationID, err)
	}
	if participant.UserID != userID {
		return EventParticipant{}, newError(CodeParticipationNotFound, "participation not found")
	}
	return participant, nil
}
