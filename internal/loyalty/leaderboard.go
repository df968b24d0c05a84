package loyalty

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// LeaderboardService reads ranked accumulators and produces the per-session
// upserts the finalize transaction applies. Rank is computed on read,
// everywhere as 1 + the number of strictly greater total scores, so an entry
// tied with another displays the same rank in both the list and the
// self-rank query.
type LeaderboardService struct {
	store Store
	cfg   Config
	now   func() time.Time
}

func NewLeaderboardService(store Store, cfg Config) *LeaderboardService {
	return &LeaderboardService{store: store, cfg: cfg.withDefaults(), now: time.Now}
}

// ScoreUpserts builds the accumulator increments for one completed session:
// every period bucket, for both the game's board and the overall board. The
// raw game score feeds the leaderboard, never the reward-adjusted points.
func ScoreUpserts(userID, gameID int64, score int, playedAt time.Time) []ScoreUpsert {
	upserts := make([]ScoreUpsert, 0, 2*len(Periods))
	for _, period := range Periods {
		bucket := period.BucketDate(playedAt)
		upserts = append(upserts,
			ScoreUpsert{UserID: userID, GameID: gameID, Period: period, BucketDate: bucket, Score: score},
			ScoreUpsert{UserID: userID, GameID: OverallGameID, Period: period, BucketDate: bucket, Score: score},
		)
	}
	return upserts
}

// RankOf returns the user's 1-based rank in the current bucket, or 0 when the
// user has no entry there.
func (s *LeaderboardService) RankOf(ctx context.Context, userID, gameID int64, period Period) (int, error) {
	bucket := period.BucketDate(s.now())

	entry, err := s.store.UserEntry(ctx, userID, gameID, period, bucket)
	if errors.Is(err, ErrNotFound) || entry == nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("loading leaderboard entry: %w", err)
	}

	greater, err := s.store.CountGreater(ctx, gameID, period, bucket, entry.TotalScore)
	if err != nil {
		return 0, fmt.Errorf("counting greater entries: %w", err)
	}
	return greater + 1, nil
}

// Page is a leaderboard response: ordered entries plus the requesting user's
// own rank and entry when asked for.
type Page struct {
	Period     Period             `json:"period"`
	PeriodDate string             `json:"periodDate"`
	GameID     int64              `json:"gameId"`
	Entries    []LeaderboardEntry `json:"entries"`
	Total      int                `json:"totalEntries"`
	MyRank     int                `json:"myRank,omitempty"`
	MyEntry    *LeaderboardEntry  `json:"myEntry,omitempty"`
}

// Leaderboard returns the current bucket ordered by total score. gameID 0 is
// the overall board. requestingUserID 0 skips the self-rank lookup.
func (s *LeaderboardService) Leaderboard(ctx context.Context, period Period, gameID int64, limit int, requestingUserID int64) (*Page, error) {
	if !period.Valid() {
		period = PeriodWeekly
	}
	if limit < 1 || limit > s.cfg.LeaderboardLimit {
		limit = s.cfg.LeaderboardLimit
	}
	bucket := period.BucketDate(s.now())

	entries, err := s.store.TopEntries(ctx, gameID, period, bucket, limit)
	if err != nil {
		return nil, fmt.Errorf("loading leaderboard: %w", err)
	}

	// Positional rank with the strictly-greater tie policy: equal totals
	// share the rank of the first of them.
	for i := range entries {
		if i > 0 && entries[i].TotalScore == entries[i-1].TotalScore {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}

	page := &Page{
		Period:     period,
		PeriodDate: bucket.Format(time.DateOnly),
		GameID:     gameID,
		Entries:    entries,
		Total:      len(entries),
	}

	if requestingUserID != 0 {
		entry, err := s.store.UserEntry(ctx, requestingUserID, gameID, period, bucket)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("loading own entry: %w", err)
		}
		if entry != nil {
			greater, err := s.store.CountGreater(ctx, gameID, period, bucket, entry.TotalScore)
			if err != nil {
				return nil, fmt.Errorf("counting greater entries: %w", err)
			}
			entry.Rank = greater + 1
			page.MyRank = entry.Rank
			page.MyEntry = entry
		}
	}

	return page, nil
}

// PeriodStats is one period's overall-board totals for a user.
type PeriodStats struct {
	TotalScore  int    `json:"totalScore"`
	BestScore   int    `json:"bestScore"`
	GamesPlayed int    `json:"gamesPlayed"`
	PeriodDate  string `json:"periodDate"`
}

// UserStats summarizes the user's overall-board accumulators for every
// period's current bucket.
func (s *LeaderboardService) UserStats(ctx context.Context, userID int64) (map[Period]PeriodStats, error) {
	now := s.now()
	stats := make(map[Period]PeriodStats, len(Periods))

	for _, period := range Periods {
		bucket := period.BucketDate(now)
		st := PeriodStats{PeriodDate: bucket.Format(time.DateOnly)}

		entry, err := s.store.UserEntry(ctx, userID, OverallGameID, period, bucket)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("loading %s stats: %w", period, err)
		}
		if entry != nil {
			st.TotalScore = entry.TotalScore
			st.BestScore = entry.BestScore
			st.GamesPlayed = entry.GamesPlayed
		}
		stats[period] = st
	}
	return stats, nil
}
