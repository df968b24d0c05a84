package loyalty

import (
	"context"
	"encoding/json"
	"fmt"
)

// Notification fact types emitted by the engine. Delivery is an external
// collaborator's job; the engine only records that something happened.
const (
	NotifyCheckin        = "checkin"
	NotifyLevelUp        = "level_up"
	NotifyAchievement    = "achievement_unlocked"
	NotifyEventCompleted = "event_completed"
)

// Notifier receives notification facts. Implementations must not block the
// calling operation; failures are the implementation's problem, not the
// engine's.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NopNotifier discards all facts.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notification) {}

func checkinFact(userID int64, loc Location, points int) Notification {
	payload, _ := json.Marshal(map[string]any{"locationId": loc.ID, "points": points})
	return Notification{
		UserID:  userID,
		Type:    NotifyCheckin,
		Title:   "Check-in recorded",
		Body:    fmt.Sprintf("You earned %d points at %s", points, loc.Name),
		Payload: payload,
	}
}

func levelUpFact(userID int64, level int) Notification {
	payload, _ := json.Marshal(map[string]any{"level": level})
	return Notification{
		UserID:  userID,
		Type:    NotifyLevelUp,
		Title:   "Level up!",
		Body:    fmt.Sprintf("You reached level %d", level),
		Payload: payload,
	}
}

func achievementFact(userID int64, a Achievement) Notification {
	payload, _ := json.Marshal(map[string]any{"achievementId": a.ID, "slug": a.Slug})
	return Notification{
		UserID:  userID,
		Type:    NotifyAchievement,
		Title:   "Achievement unlocked",
		Body:    a.Name,
		Payload: payload,
	}
}

func eventCompletedFact(userID int64, e Event) Notification {
	payload, _ := json.Marshal(map[string]any{"eventId": e.ID, "slug": e.Slug})
	return Notification{
		UserID:  userID,
		Type:    NotifyEventCompleted,
		Title:   "Event completed",
		Body:    e.Title,
		Payload: payload,
	}
}
