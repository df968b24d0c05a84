package loyalty

import (
	"context"
	"testing"
	"time"
)

func newGameServices(store *SQLiteStore) (*GameService, *LeaderboardService) {
	leaderboard := NewLeaderboardService(store, Config{})
	games := NewGameService(store, nil, leaderboard)
	return games, leaderboard
}

func TestStartSession(t *testing.T) {
	store := newTestStore(t)
	user := newTestUser(t, store, 2001)
	games, _ := newGameServices(store)

	session, err := games.StartSession(context.Background(), user.ID, "coffee-jump", "")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if session.ID == "" {
		t.Error("session ID is empty")
	}
	if session.Platform != "tma" {
		t.Errorf("platform = %q, want default tma", session.Platform)
	}
	if session.IsCompleted {
		t.Error("new session is completed")
	}

	stored, err := store.SessionByID(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("SessionByID: %v", err)
	}
	if stored.UserID != user.ID || stored.GameID != session.GameID {
		t.Errorf("stored session = %+v, want owner %d", stored, user.ID)
	}
}

func TestStartSessionUnknownGame(t *testing.T) {
	store := newTestStore(t)
	user := newTestUser(t, store, 2002)
	games, _ := newGameServices(store)

	_, err := games.StartSession(context.Background(), user.ID, "no-such-game", "tma")
	if !IsCode(err, CodeGameNotFound) {
		t.Fatalf("err = %v, want code %s", err, CodeGameNotFound)
	}
}

func TestEndSession(t *testing.T) {
	store := newTestStore(t)
	user := newTestUser(t, store, 2003)
	games, _ := newGameServices(store)

	// Level 3 grants a 10% points bonus.
	if err := store.CreditReward(context.Background(), user.ID, 0, 300, 3); err != nil {
		t.Fatalf("CreditReward: %v", err)
	}

	session, err := games.StartSession(context.Background(), user.ID, "coffee-jump", "tma")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	// coffee-jump converts at 0.02 with a 20-point cap: floor(5000 * 0.02)
	// = 100, capped to 20, 10% bonus makes 22. Experience is score / 10.
	result, err := games.EndSession(context.Background(), user.ID, session.ID, 5000, 600)
	if err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	if result.PointsEarned != 22 {
		t.Errorf("points earned = %d, want 22", result.PointsEarned)
	}
	if result.Session.ExperienceEarned != 500 {
		t.Errorf("experience earned = %d, want 500", result.Session.ExperienceEarned)
	}
	if !result.Session.IsCompleted || result.Session.CompletedAt == nil {
		t.Error("session not marked completed")
	}
	if result.User.Points != 22 || result.User.Experience != 800 {
		t.Errorf("user totals = %+v, want points 22, experience 800", result.User)
	}
	if result.User.Level != 4 || !result.User.LevelUp {
		t.Errorf("level = %d levelUp = %v, want level 4 after 800 XP", result.User.Level, result.User.LevelUp)
	}
	if rank := result.Ranks[PeriodDaily]; rank != 1 {
		t.Errorf("daily rank = %d, want 1", rank)
	}

	u, err := store.UserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("UserByID: %v", err)
	}
	if u.TotalGamesPlayed != 1 || u.BestGameScore != 5000 {
		t.Errorf("user = %+v, want 1 game played, best score 5000", u)
	}
}

func TestEndSessionImplausibleScore(t *testing.T) {
	store := newTestStore(t)
	user := newTestUser(t, store, 2004)
	games, _ := newGameServices(store)

	session, err := games.StartSession(context.Background(), user.ID, "coffee-jump", "tma")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	// coffee-jump allows at most 10/s with 20% tolerance: 120s caps at 1440.
	for _, score := range []int{1441, -1} {
		if _, err := games.EndSession(context.Background(), user.ID, session.ID, score, 120); !IsCode(err, CodeInvalidScore) {
			t.Errorf("score %d: err = %v, want code %s", score, err, CodeInvalidScore)
		}
	}

	// The rejected attempts left the session open.
	stored, err := store.SessionByID(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("SessionByID: %v", err)
	}
	if stored.IsCompleted {
		t.Error("session completed by rejected score")
	}
}

func TestEndSessionTwice(t *testing.T) {
	store := newTestStore(t)
	user := newTestUser(t, store, 2005)
	games, _ := newGameServices(store)

	session, err := games.StartSession(context.Background(), user.ID, "coffee-jump", "tma")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := games.EndSession(context.Background(), user.ID, session.ID, 500, 60); err != nil {
		t.Fatalf("first EndSession: %v", err)
	}

	_, err = games.EndSession(context.Background(), user.ID, session.ID, 500, 60)
	if !IsCode(err, CodeAlreadyCompleted) {
		t.Fatalf("err = %v, want code %s", err, CodeAlreadyCompleted)
	}

	u, err := store.UserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("UserByID: %v", err)
	}
	if u.TotalGamesPlayed != 1 {
		t.Errorf("games played = %d, want 1 after rejected replay", u.TotalGamesPlayed)
	}
}

func TestEndSessionWrongUser(t *testing.T) {
	store := newTestStore(t)
	owner := newTestUser(t, store, 2006)
	other := newTestUser(t, store, 2007)
	games, _ := newGameServices(store)

	session, err := games.StartSession(context.Background(), owner.ID, "coffee-jump", "tma")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	_, err = games.EndSession(context.Background(), other.ID, session.ID, 500, 60)
	if !IsCode(err, CodeNotYourSession) {
		t.Fatalf("err = %v, want code %s", err, CodeNotYourSession)
	}
}

func TestEndSessionAccumulates(t *testing.T) {
	store := newTestStore(t)
	user := newTestUser(t, store, 2008)
	games, _ := newGameServices(store)
	at := time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC)
	games.now = fixedClock(at)

	for _, score := range []int{600, 400} {
		session, err := games.StartSession(context.Background(), user.ID, "coffee-jump", "tma")
		if err != nil {
			t.Fatalf("StartSession: %v", err)
		}
		if _, err := games.EndSession(context.Background(), user.ID, session.ID, score, 90); err != nil {
			t.Fatalf("EndSession score %d: %v", score, err)
		}
	}

	// Both the game board and the overall board accumulate the raw scores.
	for _, gameID := range []int64{1, OverallGameID} {
		entry, err := store.UserEntry(context.Background(), user.ID, gameID, PeriodDaily, PeriodDaily.BucketDate(at))
		if err != nil {
			t.Fatalf("UserEntry game %d: %v", gameID, err)
		}
		if entry.TotalScore != 1000 || entry.BestScore != 600 || entry.GamesPlayed != 2 {
			t.Errorf("game %d entry = %+v, want total 1000, best 600, played 2", gameID, entry)
		}
	}
}
