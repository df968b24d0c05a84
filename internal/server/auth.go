package server

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/KILATIV100/perkup-ecosystem/internal/loyalty"
)

const sessionTTL = 30 * 24 * time.Hour

var errNoSession = errors.New("no valid session")

// telegramUser is the user object embedded in Mini App initData.
type telegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
}

// validateInitData checks the Telegram Mini App initData signature: the
// data-check string is every field except hash, sorted, joined with newlines,
// signed with HMAC-SHA256 under a secret derived from the bot token.
func validateInitData(initData, botToken string, now time.Time) (telegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return telegramUser{}, fmt.Errorf("parsing init data: %w", err)
	}
	gotHash := values.Get("hash")
	if gotHash == "" {
		return telegramUser{}, errors.New("init data has no hash")
	}
	values.Del("hash")

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}
	checkString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	wantHash := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(gotHash), []byte(wantHash)) {
		return telegramUser{}, errors.New("init data signature mismatch")
	}

	if authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64); err != nil {
		return telegramUser{}, errors.New("init data has no auth_date")
	} else if now.Sub(time.Unix(authDate, 0)) > 24*time.Hour {
		return telegramUser{}, errors.New("init data expired")
	}

	var u telegramUser
	if err := json.Unmarshal([]byte(values.Get("user")), &u); err != nil {
		return telegramUser{}, fmt.Errorf("decoding user: %w", err)
	}
	if u.ID == 0 {
		return telegramUser{}, errors.New("init data user has no id")
	}
	return u, nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func createSession(ctx context.Context, db *sql.DB, userID int64, expiresAt time.Time) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)
	`, token, userID, expiresAt.UTC().Format(time.RFC3339))
	return token, err
}

// userIDFromToken resolves a bearer token to a user, honoring expiry.
func userIDFromToken(ctx context.Context, db *sql.DB, token string) (int64, error) {
	var userID int64
	err := db.QueryRowContext(ctx, `
		SELECT user_id FROM sessions WHERE token = ? AND expires_at > ?
	`, token, time.Now().UTC().Format(time.RFC3339)).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errNoSession
	}
	return userID, err
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	return token, found && token != ""
}

// AuthRequest is the request body for POST /api/auth/telegram.
type AuthRequest struct {
	InitData string `json:"initData"`
}

// AuthResponse carries the session token and the resolved user.
type AuthResponse struct {
	Token string       `json:"token"`
	User  loyalty.User `json:"user"`
}

func handleTelegramAuth(logger *slog.Logger, db *sql.DB, store *loyalty.SQLiteStore, botToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// An empty bot token would let anyone forge a valid signature.
		if botToken == "" {
			writeError(w, http.StatusServiceUnavailable, "telegram auth is not configured")
			return
		}

		var req AuthRequest
		if err := readJSON(r, &req); err != nil || req.InitData == "" {
			writeError(w, http.StatusBadRequest, "initData is required")
			return
		}

		tg, err := validateInitData(req.InitData, botToken, time.Now())
		if err != nil {
			logger.Warn("telegram auth rejected", "error", err)
			writeError(w, http.StatusUnauthorized, "invalid init data")
			return
		}

		user, err := store.UpsertUser(r.Context(), tg.ID, tg.Username, tg.FirstName, tg.PhotoURL)
		if err != nil {
			logger.Error("upserting user", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		token, err := createSession(r.Context(), db, user.ID, time.Now().Add(sessionTTL))
		if err != nil {
			logger.Error("creating session", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
	}
}
