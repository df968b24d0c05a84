package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/KILATIV100/perkup-ecosystem/internal/database"
	"github.com/KILATIV100/perkup-ecosystem/internal/loyalty"
	"github.com/KILATIV100/perkup-ecosystem/internal/migrations"
)

const testBotToken = "12345:TEST-TOKEN"

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenTest(context.Background())
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return db
}

// testRouter wires the full route table against a migrated in-memory
// database, without redis.
func testRouter(t *testing.T) (*chi.Mux, Deps) {
	t.Helper()
	db := setupTestDB(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := loyalty.NewSQLiteStore(db)
	broker := NewBroker()
	notifier := NewStoreNotifier(logger, store, broker)
	leaderboard := loyalty.NewLeaderboardService(store, loyalty.DefaultConfig)

	d := Deps{
		Logger:       logger,
		DB:           db,
		Broker:       broker,
		Store:        store,
		Checkins:     loyalty.NewCheckinService(store, loyalty.DefaultConfig, notifier),
		Games:        loyalty.NewGameService(store, notifier, leaderboard),
		Leaderboard:  leaderboard,
		Events:       loyalty.NewEventService(store, notifier),
		Achievements: loyalty.NewAchievementService(store, notifier),
		BotToken:     testBotToken,
	}

	r := chi.NewRouter()
	addRoutes(r, d)
	return r, d
}

// playerSession registers a user directly and mints a bearer token for it.
func playerSession(t *testing.T, d Deps, telegramID int64) (string, loyalty.User) {
	t.Helper()
	ctx := context.Background()

	user, err := d.Store.UpsertUser(ctx, telegramID, "tester", "Tester", "")
	if err != nil {
		t.Fatalf("upserting user: %v", err)
	}
	token, err := createSession(ctx, d.DB, user.ID, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	return token, user
}

// signInitData produces Mini App initData signed the way Telegram does.
func signInitData(t *testing.T, botToken string, user telegramUser, authDate time.Time) string {
	t.Helper()

	userJSON, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshaling user: %v", err)
	}

	values := url.Values{}
	values.Set("user", string(userJSON))
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("query_id", "AAF-test")

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}
