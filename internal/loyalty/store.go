package loyalty

import (
	"context"
	"time"
)

// The engine talks to persistence through these narrow interfaces. The two
// race windows of the design — the check-in cooldown and the leaderboard
// accumulator upsert — are explicit storage primitives (ApplyCheckin,
// FinalizeSession) so the engine never does its own read-then-write there.

type UserStore interface {
	UserByID(ctx context.Context, id int64) (User, error)

	// CreditReward adds points and experience with atomic increments and
	// raises the level if higher. Used by achievement completion.
	CreditReward(ctx context.Context, userID int64, points, experience, level int) error
}

type LocationStore interface {
	LocationByID(ctx context.Context, id int64) (Location, error)
	ListLocations(ctx context.Context, activeOnly bool) ([]Location, error)
}

type CheckinStore interface {
	// ApplyCheckin inserts the check-in fact and applies every counter update
	// (location total, user totals, points, XP, level) in one transaction.
	// A concurrent or repeated same-day check-in returns ErrDuplicate with no
	// effects applied. The updated user row is returned.
	ApplyCheckin(ctx context.Context, c *Checkin, newLevel int) (User, error)

	LastCheckin(ctx context.Context, userID, locationID int64) (*Checkin, error)
	UserCheckins(ctx context.Context, userID int64, page, perPage int) ([]Checkin, int, error)
}

type GameStore interface {
	GameByID(ctx context.Context, id int64) (Game, error)
	GameBySlug(ctx context.Context, slug string) (Game, error)
	ListGames(ctx context.Context, activeOnly bool) ([]Game, error)

	CreateSession(ctx context.Context, s *GameSession) error
	SessionByID(ctx context.Context, id string) (GameSession, error)

	// FinalizeSession marks the session completed, applies the user reward
	// and the leaderboard accumulator upserts in one transaction. The
	// completed flag flips via a guarded update; a second finalize returns
	// ErrAlreadyFinalized with no effects applied.
	FinalizeSession(ctx context.Context, s *GameSession, newLevel int, upserts []ScoreUpsert) (User, error)
}

type LeaderboardStore interface {
	TopEntries(ctx context.Context, gameID int64, period Period, bucket time.Time, limit int) ([]LeaderboardEntry, error)
	UserEntry(ctx context.Context, userID, gameID int64, period Period, bucket time.Time) (*LeaderboardEntry, error)

	// CountGreater counts accumulators in the bucket with a strictly greater
	// total score. Rank is one more than this everywhere.
	CountGreater(ctx context.Context, gameID int64, period Period, bucket time.Time, totalScore int) (int, error)
}

// EventFilter narrows ListEvents. Now anchors the active/upcoming/past
// windows.
type EventFilter struct {
	Status       string
	EventType    string
	FeaturedOnly bool
	Now          time.Time
}

type EventStore interface {
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
	EventBySlug(ctx context.Context, slug string) (Event, error)
	EventByID(ctx context.Context, id string) (Event, error)

	Participation(ctx context.Context, eventID string, userID int64) (*EventParticipant, error)
	ParticipantByID(ctx context.Context, id string) (EventParticipant, error)

	// AddParticipant inserts the participation and bumps the event's
	// participant counter in one transaction. Returns ErrDuplicate for a
	// repeated join and ErrCapacityReached when the event is full.
	AddParticipant(ctx context.Context, p *EventParticipant) error

	SaveParticipant(ctx context.Context, p *EventParticipant) error
}

type AchievementStore interface {
	ListAchievements(ctx context.Context, activeOnly bool) ([]Achievement, error)

	// UserAchievements returns the user's progress rows keyed by achievement.
	UserAchievements(ctx context.Context, userID int64) (map[int64]UserAchievement, error)

	SaveUserAchievement(ctx context.Context, ua *UserAchievement) error
}

type NotificationStore interface {
	SaveNotification(ctx context.Context, n *Notification) error
	UserNotifications(ctx context.Context, userID int64, limit int) ([]Notification, error)
	MarkNotificationsRead(ctx context.Context, userID int64) error
}

// Store is the full persistence surface, implemented by SQLiteStore.
type Store interface {
	UserStore
	LocationStore
	CheckinStore
	GameStore
	LeaderboardStore
	EventStore
	AchievementStore
	NotificationStore
}
