package loyalty

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KILATIV100/perkup-ecosystem/internal/levels"
)

// AchievementRequirement is the descriptor stored with each achievement.
// Kinds outside the tracked set (referrals, streaks, tournaments) are skipped
// by this evaluator; their progress is driven elsewhere.
type AchievementRequirement struct {
	Type     string `json:"type"`
	Count    int    `json:"count,omitempty"`
	MinScore int    `json:"min_score,omitempty"`
}

// AchievementService evaluates the achievement catalog against a user's
// aggregate state after check-ins and completed games. Progress rows are
// created lazily on first movement; completing one credits its fixed reward.
type AchievementService struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

func NewAchievementService(store Store, notifier Notifier) *AchievementService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AchievementService{store: store, notifier: notifier, now: time.Now}
}

// OnCheckin re-evaluates after a check-in.
func (s *AchievementService) OnCheckin(ctx context.Context, user User) error {
	return s.evaluate(ctx, user, 0)
}

// OnGameCompleted re-evaluates after a finalized session. score is the
// session's raw score.
func (s *AchievementService) OnGameCompleted(ctx context.Context, user User, score int) error {
	return s.evaluate(ctx, user, score)
}

func (s *AchievementService) evaluate(ctx context.Context, user User, sessionScore int) error {
	catalog, err := s.store.ListAchievements(ctx, true)
	if err != nil {
		return fmt.Errorf("loading achievements: %w", err)
	}
	existing, err := s.store.UserAchievements(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("loading user achievements: %w", err)
	}

	for _, a := range catalog {
		prev, tracked := existing[a.ID]
		if tracked && prev.IsCompleted {
			continue
		}

		var req AchievementRequirement
		if err := json.Unmarshal(a.Requirements, &req); err != nil {
			continue
		}

		current, target, ok := s.metric(req, user, sessionScore)
		if !ok {
			continue
		}
		if tracked && progressOf(prev) == current {
			continue
		}

		pct := 100
		if target > 0 {
			pct = 100 * current / target
			if pct > 100 {
				pct = 100
			}
		}

		ua := UserAchievement{
			ID:                 uuid.NewString(),
			UserID:             user.ID,
			AchievementID:      a.ID,
			ProgressPercentage: pct,
		}
		if tracked {
			ua.ID = prev.ID
		}
		raw, _ := json.Marshal(map[string]int{"current": current, "target": target})
		ua.Progress = raw

		if pct >= 100 {
			now := s.now().UTC()
			ua.IsCompleted = true
			ua.CompletedAt = &now
		}

		if err := s.store.SaveUserAchievement(ctx, &ua); err != nil {
			return fmt.Errorf("saving achievement progress: %w", err)
		}

		if ua.IsCompleted {
			if a.PointsReward > 0 || a.ExperienceReward > 0 {
				newLevel := levels.ForExperience(user.Experience + a.ExperienceReward)
				if err := s.store.CreditReward(ctx, user.ID, a.PointsReward, a.ExperienceReward, newLevel); err != nil {
					return fmt.Errorf("crediting achievement reward: %w", err)
				}
			}
			s.notifier.Notify(ctx, achievementFact(user.ID, a))
		}
	}
	return nil
}

// metric resolves the requirement kind to (current, target). ok is false for
// kinds this evaluator does not track.
func (s *AchievementService) metric(req AchievementRequirement, user User, sessionScore int) (current, target int, ok bool) {
	switch req.Type {
	case "checkins":
		return user.TotalCheckins, req.Count, true
	case "games":
		return user.TotalGamesPlayed, req.Count, true
	case "game_score":
		best := user.BestGameScore
		if sessionScore > best {
			best = sessionScore
		}
		return best, req.MinScore, true
	case "level":
		return user.Level, req.Count, true
	default:
		return 0, 0, false
	}
}

func progressOf(ua UserAchievement) int {
	var doc struct {
		Current int `json:"current"`
	}
	json.Unmarshal(ua.Progress, &doc)
	return doc.Current
}

// AchievementStatus pairs a catalog entry with the user's progress.
type AchievementStatus struct {
	Achievement
	Progress           json.RawMessage `json:"progress,omitempty"`
	ProgressPercentage int             `json:"progressPercentage"`
	IsCompleted        bool            `json:"isCompleted"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty"`
}

// ForUser lists the active catalog annotated with the user's progress.
func (s *AchievementService) ForUser(ctx context.Context, userID int64) ([]AchievementStatus, error) {
	catalog, err := s.store.ListAchievements(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("loading achievements: %w", err)
	}
	existing, err := s.store.UserAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user achievements: %w", err)
	}

	statuses := make([]AchievementStatus, 0, len(catalog))
	for _, a := range catalog {
		st := AchievementStatus{Achievement: a}
		if ua, ok := existing[a.ID]; ok {
			st.Progress = ua.Progress
			st.ProgressPercentage = ua.ProgressPercentage
			st.IsCompleted = ua.IsCompleted
			st.CompletedAt = ua.CompletedAt
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}
