package loyalty

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/KILATIV100/perkup-ecosystem/internal/anticheat"
	"github.com/KILATIV100/perkup-ecosystem/internal/levels"
)

// GameService runs the game session lifecycle: open a session, finalize it
// exactly once with an anti-cheat-checked score, and feed the leaderboard.
type GameService struct {
	store       Store
	notifier    Notifier
	leaderboard *LeaderboardService
	now         func() time.Time
}

func NewGameService(store Store, notifier Notifier, leaderboard *LeaderboardService) *GameService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &GameService{
		store:       store,
		notifier:    notifier,
		leaderboard: leaderboard,
		now:         time.Now,
	}
}

func (s *GameService) ListGames(ctx context.Context) ([]Game, error) {
	return s.store.ListGames(ctx, true)
}

// StartSession opens a session. No reward is computed until the session ends.
func (s *GameService) StartSession(ctx context.Context, userID int64, gameSlug, platform string) (*GameSession, error) {
	game, err := s.store.GameBySlug(ctx, gameSlug)
	if errors.Is(err, ErrNotFound) {
		return nil, newError(CodeGameNotFound, "game not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading game %q: %w", gameSlug, err)
	}
	if !game.IsActive {
		return nil, newError(CodeGameNotFound, "game not found")
	}

	if platform == "" {
		platform = "tma"
	}
	session := &GameSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		GameID:    game.ID,
		Platform:  platform,
		StartedAt: s.now().UTC(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return session, nil
}

// GameResult is the success payload of a session end: the finalized session,
// the points actually credited, and the user's rank per period.
type GameResult struct {
	Session      GameSession    `json:"session"`
	PointsEarned int            `json:"pointsEarned"`
	User         UserTotals     `json:"user"`
	Ranks        map[Period]int `json:"ranks"`
}

// rankedPeriods are the windows reported back after a session end.
var rankedPeriods = []Period{PeriodDaily, PeriodWeekly, PeriodAllTime}

// EndSession finalizes a session with the reported score. The session's raw
// score drives both XP and the leaderboard; the bonus multiplier touches
// points only.
func (s *GameService) EndSession(ctx context.Context, userID int64, sessionID string, score, durationSeconds int) (*GameResult, error) {
	session, err := s.store.SessionByID(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, newError(CodeSessionNotFound, "game session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	if session.UserID != userID {
		return nil, newError(CodeNotYourSession, "this session belongs to another user")
	}
	if session.IsCompleted {
		return nil, newError(CodeAlreadyCompleted, "session already completed")
	}

	game, err := s.store.GameByID(ctx, session.GameID)
	if err != nil {
		return nil, fmt.Errorf("loading game %d: %w", session.GameID, err)
	}

	if score < 0 || !anticheat.Plausible(score, durationSeconds, game.Slug) {
		return nil, newError(CodeInvalidScore, "score validation failed")
	}

	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user %d: %w", userID, err)
	}

	rawPoints := int(math.Floor(float64(score) * game.PointsConversionRate))
	if rawPoints > game.MaxPointsPerGame {
		rawPoints = game.MaxPointsPerGame
	}
	pointsEarned := levels.AwardPoints(rawPoints, user.Level)
	experienceEarned := score / 10
	newLevel := levels.ForExperience(user.Experience + experienceEarned)

	now := s.now().UTC()
	session.Score = score
	session.DurationSeconds = durationSeconds
	session.PointsEarned = pointsEarned
	session.ExperienceEarned = experienceEarned
	session.IsCompleted = true
	session.CompletedAt = &now

	upserts := ScoreUpserts(userID, game.ID, score, now)

	updated, err := s.store.FinalizeSession(ctx, &session, newLevel, upserts)
	if errors.Is(err, ErrAlreadyFinalized) {
		return nil, newError(CodeAlreadyCompleted, "session already completed")
	}
	if err != nil {
		return nil, fmt.Errorf("finalizing session: %w", err)
	}

	if updated.Level > user.Level {
		s.notifier.Notify(ctx, levelUpFact(userID, updated.Level))
	}

	ranks := make(map[Period]int, len(rankedPeriods))
	for _, period := range rankedPeriods {
		rank, err := s.leaderboard.RankOf(ctx, userID, game.ID, period)
		if err != nil {
			return nil, err
		}
		ranks[period] = rank
	}

	return &GameResult{
		Session:      session,
		PointsEarned: pointsEarned,
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
		Ranks: ranks,
	}, nil
}
