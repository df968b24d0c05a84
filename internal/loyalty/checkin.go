package loyalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KILATIV100/perkup-ecosystem/internal/geo"
	"github.com/KILATIV100/perkup-ecosystem/internal/levels"
)

// Config carries the engine's policy constants. Components receive it at
// construction instead of reading ambient globals, so tests can override the
// economy per scenario.
type Config struct {
	CheckinBasePoints int
	CheckinBaseXP     int
	LeaderboardLimit  int
}

// DefaultConfig is the production economy.
var DefaultConfig = Config{
	CheckinBasePoints: 1,
	CheckinBaseXP:     10,
	LeaderboardLimit:  100,
}

func (c Config) withDefaults() Config {
	if c.CheckinBasePoints == 0 {
		c.CheckinBasePoints = DefaultConfig.CheckinBasePoints
	}
	if c.CheckinBaseXP == 0 {
		c.CheckinBaseXP = DefaultConfig.CheckinBaseXP
	}
	if c.LeaderboardLimit == 0 {
		c.LeaderboardLimit = DefaultConfig.LeaderboardLimit
	}
	return c
}

// UserTotals is the updated-ledger summary returned with every award.
type UserTotals struct {
	Points           int  `json:"points"`
	Experience       int  `json:"experience"`
	Level            int  `json:"level"`
	LevelProgress    int  `json:"levelProgress"`
	TotalCheckins    int  `json:"totalCheckins"`
	PointsEarned     int  `json:"pointsEarned"`
	ExperienceEarned int  `json:"experienceEarned"`
	LevelUp          bool `json:"levelUp"`
}

// levelProgress is the percentage of the way from the current level's floor
// to the next threshold; 100 at the cap.
func levelProgress(experience, level int) int {
	next := levels.NextThreshold(level)
	if next < 0 {
		return 100
	}
	floor := levels.FloorThreshold(level)
	if next == floor {
		return 100
	}
	return 100 * (experience - floor) / (next - floor)
}

// CheckinResult is the success payload of a check-in.
type CheckinResult struct {
	Checkin Checkin    `json:"checkin"`
	User    UserTotals `json:"user"`
}

// CheckinService orchestrates one geofenced check-in.
type CheckinService struct {
	store    Store
	cfg      Config
	notifier Notifier
	now      func() time.Time
}

func NewCheckinService(store Store, cfg Config, notifier Notifier) *CheckinService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &CheckinService{
		store:    store,
		cfg:      cfg.withDefaults(),
		notifier: notifier,
		now:      time.Now,
	}
}

// PerformCheckin validates the reported position against the location's
// geofence, awards points and XP, and records the check-in fact. All side
// effects apply atomically or not at all.
func (s *CheckinService) PerformCheckin(ctx context.Context, userID, locationID int64, lat, lon float64) (*CheckinResult, error) {
	loc, err := s.store.LocationByID(ctx, locationID)
	if errors.Is(err, ErrNotFound) {
		return nil, newError(CodeLocationNotFound, "location not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading location %d: %w", locationID, err)
	}
	if !loc.IsActive {
		return nil, newError(CodeLocationInactive, "location is not active")
	}

	within, distance := geo.WithinRadius(lat, lon, loc.Latitude, loc.Longitude, loc.RadiusMeters)
	if !within {
		return nil, &Error{
			Code:    CodeTooFar,
			Message: fmt.Sprintf("you are %dm away from the location, maximum allowed: %dm", distance, loc.RadiusMeters),
			Details: map[string]any{"distance": distance, "max_distance": loc.RadiusMeters},
		}
	}

	user, err := s.store.UserByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, newError(CodeUserNotFound, "user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading user %d: %w", userID, err)
	}

	pointsEarned := levels.AwardPoints(s.cfg.CheckinBasePoints, user.Level)
	experienceEarned := s.cfg.CheckinBaseXP
	newLevel := levels.ForExperience(user.Experience + experienceEarned)

	now := s.now()
	checkin := &Checkin{
		UserID:           userID,
		LocationID:       loc.ID,
		UserLatitude:     lat,
		UserLongitude:    lon,
		DistanceMeters:   distance,
		PointsEarned:     pointsEarned,
		ExperienceEarned: experienceEarned,
		CheckinDate:      now.UTC().Format(time.DateOnly),
		CreatedAt:        now.UTC(),
	}

	// The UNIQUE (user, location, date) index is the cooldown guarantee; a
	// concurrent duplicate surfaces here as ErrDuplicate.
	updated, err := s.store.ApplyCheckin(ctx, checkin, newLevel)
	if errors.Is(err, ErrDuplicate) {
		return nil, s.cooldownError(ctx, userID, loc.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("applying check-in: %w", err)
	}

	s.notifier.Notify(ctx, checkinFact(userID, loc, pointsEarned))
	if updated.Level > user.Level {
		s.notifier.Notify(ctx, levelUpFact(userID, updated.Level))
	}

	return &CheckinResult{
		Checkin: *checkin,
		User: UserTotals{
			Points:           updated.Points,
			Experience:       updated.Experience,
			Level:            updated.Level,
			LevelProgress:    levelProgress(updated.Experience, updated.Level),
			TotalCheckins:    updated.TotalCheckins,
			PointsEarned:     pointsEarned,
			ExperienceEarned: experienceEarned,
			LevelUp:          updated.Level > user.Level,
		},
	}, nil
}

func (s *CheckinService) cooldownError(ctx context.Context, userID, locationID int64) error {
	e := &Error{
		Code:    CodeCooldownActive,
		Message: "you have already checked in at this location today",
		Details: map[string]any{},
	}
	if last, err := s.store.LastCheckin(ctx, userID, locationID); err == nil && last != nil {
		e.Details["last_checkin_at"] = last.CreatedAt.Format(time.RFC3339)
		nextDay := last.CreatedAt.UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
		e.Details["next_available_at"] = nextDay.Format(time.RFC3339)
	}
	return e
}

// History returns the user's check-ins, newest first, with the total count.
func (s *CheckinService) History(ctx context.Context, userID int64, page, perPage int) ([]Checkin, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.store.UserCheckins(ctx, userID, page, perPage)
}
