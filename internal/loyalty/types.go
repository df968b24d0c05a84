package loyalty

import (
	"encoding/json"
	"time"
)

// User is the points/XP ledger. Check-ins and completed game sessions are its
// only writers.
type User struct {
	ID               int64     `json:"id"`
	TelegramID       int64     `json:"telegramId"`
	Username         string    `json:"username,omitempty"`
	FirstName        string    `json:"firstName,omitempty"`
	PhotoURL         string    `json:"photoUrl,omitempty"`
	Points           int       `json:"points"`
	Experience       int       `json:"experience"`
	Level            int       `json:"level"`
	TotalCheckins    int       `json:"totalCheckins"`
	TotalGamesPlayed int       `json:"totalGamesPlayed"`
	BestGameScore    int       `json:"bestGameScore"`
	CreatedAt        time.Time `json:"createdAt"`
}

type Location struct {
	ID            int64   `json:"id"`
	Slug          string  `json:"slug"`
	Name          string  `json:"name"`
	Address       string  `json:"address,omitempty"`
	City          string  `json:"city,omitempty"`
	Description   string  `json:"description,omitempty"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	RadiusMeters  int     `json:"checkinRadiusMeters"`
	IsActive      bool    `json:"isActive"`
	TotalCheckins int     `json:"totalCheckins"`
}

// Checkin is an immutable fact. At most one exists per (user, location,
// calendar date); the UNIQUE index is the guarantee, not the service's
// read-before-insert.
type Checkin struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"userId"`
	LocationID       int64     `json:"locationId"`
	UserLatitude     float64   `json:"userLatitude"`
	UserLongitude    float64   `json:"userLongitude"`
	DistanceMeters   int       `json:"distanceMeters"`
	PointsEarned     int       `json:"pointsEarned"`
	ExperienceEarned int       `json:"experienceEarned"`
	CheckinDate      string    `json:"checkinDate"`
	CreatedAt        time.Time `json:"createdAt"`
}

type Game struct {
	ID                   int64   `json:"id"`
	Slug                 string  `json:"slug"`
	Name                 string  `json:"name"`
	Description          string  `json:"description,omitempty"`
	PointsConversionRate float64 `json:"pointsConversionRate"`
	MaxPointsPerGame     int     `json:"maxPointsPerGame"`
	IsActive             bool    `json:"isActive"`
}

// GameSession starts open and is finalized exactly once.
type GameSession struct {
	ID               string     `json:"id"`
	UserID           int64      `json:"userId"`
	GameID           int64      `json:"gameId"`
	Score            int        `json:"score"`
	DurationSeconds  int        `json:"durationSeconds"`
	PointsEarned     int        `json:"pointsEarned"`
	ExperienceEarned int        `json:"experienceEarned"`
	Platform         string     `json:"platform"`
	IsCompleted      bool       `json:"isCompleted"`
	StartedAt        time.Time  `json:"startedAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
}

// Period identifies a leaderboard time window.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodAllTime Period = "all_time"
)

// Periods lists every window, aggregation order.
var Periods = []Period{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAllTime}

func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAllTime:
		return true
	}
	return false
}

// allTimeBucket is the fixed sentinel date shared by every all_time entry.
var allTimeBucket = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// BucketDate maps today to the period's bucket key: the day itself, the ISO
// week's Monday, the first of the month, or the all-time sentinel.
func (p Period) BucketDate(today time.Time) time.Time {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	switch p {
	case PeriodDaily:
		return today
	case PeriodWeekly:
		return today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	case PeriodMonthly:
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return allTimeBucket
	}
}

// OverallGameID marks the cross-game leaderboard accumulator.
const OverallGameID int64 = 0

// LeaderboardEntry is one accumulator row joined with the user's display
// fields. Rank is computed on read.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      int64  `json:"userId"`
	Username    string `json:"username,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	TotalScore  int    `json:"totalScore"`
	BestScore   int    `json:"bestScore"`
	GamesPlayed int    `json:"gamesPlayed"`
}

// ScoreUpsert is one atomic accumulator increment, applied with the session's
// raw score inside the finalize transaction.
type ScoreUpsert struct {
	UserID     int64
	GameID     int64
	Period     Period
	BucketDate time.Time
	Score      int
}

type Achievement struct {
	ID               int64           `json:"id"`
	Slug             string          `json:"slug"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Category         string          `json:"category"`
	Requirements     json.RawMessage `json:"requirements"`
	PointsReward     int             `json:"pointsReward"`
	ExperienceReward int             `json:"experienceReward"`
	IsActive         bool            `json:"isActive"`
	SortOrder        int             `json:"sortOrder"`
}

// UserAchievement is created lazily on first progress update.
type UserAchievement struct {
	ID                 string          `json:"id"`
	UserID             int64           `json:"userId"`
	AchievementID      int64           `json:"achievementId"`
	Progress           json.RawMessage `json:"progress"`
	ProgressPercentage int             `json:"progressPercentage"`
	IsCompleted        bool            `json:"isCompleted"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty"`
}

type Event struct {
	ID                  string          `json:"id"`
	Slug                string          `json:"slug"`
	Title               string          `json:"title"`
	Description         string          `json:"description,omitempty"`
	EventType           string          `json:"eventType"`
	StartsAt            time.Time       `json:"startsAt"`
	EndsAt              time.Time       `json:"endsAt"`
	Requirements        json.RawMessage `json:"requirements"`
	Rewards             json.RawMessage `json:"rewards"`
	MaxParticipants     *int            `json:"maxParticipants,omitempty"`
	CurrentParticipants int             `json:"currentParticipants"`
	Status              string          `json:"status"`
	IsFeatured          bool            `json:"isFeatured"`
}

// Participant states: joined -> completed -> rewarded.
const (
	ParticipantJoined    = "joined"
	ParticipantCompleted = "completed"
	ParticipantRewarded  = "rewarded"
)

type EventParticipant struct {
	ID                 string          `json:"id"`
	EventID            string          `json:"eventId"`
	UserID             int64           `json:"userId"`
	Status             string          `json:"status"`
	Progress           json.RawMessage `json:"progress"`
	ProgressPercentage int             `json:"progressPercentage"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty"`
	RewardsClaimed     bool            `json:"rewardsClaimed"`
	RewardsClaimedAt   *time.Time      `json:"rewardsClaimedAt,omitempty"`
	JoinedAt           time.Time       `json:"joinedAt"`
}

type Notification struct {
	ID        string          `json:"id"`
	UserID    int64           `json:"userId"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Body      string          `json:"body,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	IsRead    bool            `json:"isRead"`
	CreatedAt time.Time       `json:"createdAt"`
}
