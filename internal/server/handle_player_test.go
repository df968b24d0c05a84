package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KILATIV100/perkup-ecosystem/internal/loyalty"
)

const (
	markMallLat = 50.514794
	markMallLon = 30.782308
)

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCheckinEndpoint(t *testing.T) {
	r, d := testRouter(t)
	token, _ := playerSession(t, d, 2001)

	w := doJSON(t, r, http.MethodPost, "/api/checkins", token, CheckinRequest{
		LocationID: 1,
		Latitude:   markMallLat,
		Longitude:  markMallLon,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result loyalty.CheckinResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if result.Checkin.LocationID != 1 {
		t.Errorf("location = %d, want 1", result.Checkin.LocationID)
	}
	// Base award plus the first-checkin achievement payout.
	if result.Checkin.PointsEarned != 1 {
		t.Errorf("points earned = %d, want 1", result.Checkin.PointsEarned)
	}

	// Second check-in the same day is a cooldown conflict.
	w = doJSON(t, r, http.MethodPost, "/api/checkins", token, CheckinRequest{
		LocationID: 1,
		Latitude:   markMallLat,
		Longitude:  markMallLon,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("repeat: expected 409, got %d: %s", w.Code, w.Body.String())
	}
	var errResp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	json.NewDecoder(w.Body).Decode(&errResp)
	if errResp.Code != "cooldown_active" {
		t.Errorf("code = %q, want cooldown_active", errResp.Code)
	}
}

func TestCheckinEndpointTooFar(t *testing.T) {
	r, d := testRouter(t)
	token, _ := playerSession(t, d, 2002)

	w := doJSON(t, r, http.MethodPost, "/api/checkins", token, CheckinRequest{
		LocationID: 1,
		Latitude:   markMallLat + 0.01,
		Longitude:  markMallLon,
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCheckinEndpointValidation(t *testing.T) {
	r, d := testRouter(t)
	token, _ := playerSession(t, d, 2003)

	tests := []struct {
		name string
		req  CheckinRequest
	}{
		{"missing location", CheckinRequest{Latitude: 50, Longitude: 30}},
		{"latitude out of range", CheckinRequest{LocationID: 1, Latitude: 91, Longitude: 30}},
		{"longitude out of range", CheckinRequest{LocationID: 1, Latitude: 50, Longitude: -181}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/checkins", token, tt.req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestCheckinHistoryEndpoint(t *testing.T) {
	r, d := testRouter(t)
	token, _ := playerSession(t, d, 2004)

	doJSON(t, r, http.MethodPost, "/api/checkins", token, CheckinRequest{
		LocationID: 1, Latitude: markMallLat, Longitude: markMallLon,
	})

	w := doJSON(t, r, http.MethodGet, "/api/checkins?page=1&perPage=10", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp CheckinHistoryResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Checkins) != 1 || resp.Total != 1 {
		t.Errorf("got %d checkins (total %d), want 1", len(resp.Checkins), resp.Total)
	}
}

func TestGameSessionFlow(t *testing.T) {
	r, d := testRouter(t)
	token, user := playerSession(t, d, 2005)

	w := doJSON(t, r, http.MethodPost, "/api/games/coffee-jump/sessions", token, StartSessionRequest{Platform: "tma"})
	if w.Code != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var session loyalty.GameSession
	json.NewDecoder(w.Body).Decode(&session)
	if session.ID == "" {
		t.Fatal("expected a session id")
	}
	if session.UserID != user.ID {
		t.Errorf("session user = %d, want %d", session.UserID, user.ID)
	}

	finish := fmt.Sprintf("/api/games/sessions/%s/finish", session.ID)
	w = doJSON(t, r, http.MethodPost, finish, token, EndSessionRequest{Score: 500, DurationSeconds: 120})
	if w.Code != http.StatusOK {
		t.Fatalf("finish: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result loyalty.GameResult
	json.NewDecoder(w.Body).Decode(&result)
	// 500 * 0.02 = 10 points, under the cap.
	if result.PointsEarned != 10 {
		t.Errorf("points = %d, want 10", result.PointsEarned)
	}
	if result.Session.ExperienceEarned != 50 {
		t.Errorf("xp = %d, want 50", result.Session.ExperienceEarned)
	}

	// Finishing twice conflicts.
	w = doJSON(t, r, http.MethodPost, finish, token, EndSessionRequest{Score: 500, DurationSeconds: 120})
	if w.Code != http.StatusConflict {
		t.Fatalf("refinish: expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGameSessionWrongUser(t *testing.T) {
	r, d := testRouter(t)
	ownerToken, _ := playerSession(t, d, 2006)
	otherToken, _ := playerSession(t, d, 2007)

	w := doJSON(t, r, http.MethodPost, "/api/games/coffee-jump/sessions", ownerToken, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d", w.Code)
	}
	var session loyalty.GameSession
	json.NewDecoder(w.Body).Decode(&session)

	w = doJSON(t, r, http.MethodPost, "/api/games/sessions/"+session.ID+"/finish", otherToken,
		EndSessionRequest{Score: 100, DurationSeconds: 60})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGameSessionImplausibleScore(t *testing.T) {
	r, d := testRouter(t)
	token, _ := playerSession(t, d, 2008)

	w := doJSON(t, r, http.MethodPost, "/api/games/coffee-jump/sessions", token, nil)
	var session loyalty.GameSession
	json.NewDecoder(w.Body).Decode(&session)

	w = doJSON(t, r, http.MethodPost, "/api/games/sessions/"+session.ID+"/finish", token,
		EndSessionRequest{Score: 1_000_000, DurationSeconds: 60})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	r, d := testRouter(t)
	token, _ := playerSession(t, d, 2009)

	w := doJSON(t, r, http.MethodPost, "/api/games/coffee-jump/sessions", token, nil)
	var session loyalty.GameSession
	json.NewDecoder(w.Body).Decode(&session)
	doJSON(t, r, http.MethodPost, "/api/games/sessions/"+session.ID+"/finish", token,
		EndSessionRequest{Score: 400, DurationSeconds: 60})

	w = doJSON(t, r, http.MethodGet, "/api/leaderboard?period=weekly", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var page loyalty.Page
	json.NewDecoder(w.Body).Decode(&page)
	if len(page.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(page.Entries))
	}
	if page.MyRank != 1 {
		t.Errorf("my rank = %d, want 1", page.MyRank)
	}

	w = doJSON(t, r, http.MethodGet, "/api/leaderboard?period=bogus", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad period: expected 400, got %d", w.Code)
	}
}

func TestProfileEndpoint(t *testing.T) {
	r, d := testRouter(t)
	token, _ := playerSession(t, d, 2010)

	w := doJSON(t, r, http.MethodGet, "/api/profile", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp ProfileResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.User.Level != 1 {
		t.Errorf("level = %d, want 1", resp.User.Level)
	}
	if resp.NextLevelXP != 100 {
		t.Errorf("next level xp = %d, want 100", resp.NextLevelXP)
	}
}

func TestEventJoinAndClaimFlow(t *testing.T) {
	r, d := testRouter(t)
	token, _ := playerSession(t, d, 2011)

	w := doJSON(t, r, http.MethodPost, "/api/events/launch-season/join", token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("join: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var participant loyalty.EventParticipant
	json.NewDecoder(w.Body).Decode(&participant)
	if participant.Status != loyalty.ParticipantJoined {
		t.Fatalf("status = %q, want joined", participant.Status)
	}

	// Joining twice conflicts.
	w = doJSON(t, r, http.MethodPost, "/api/events/launch-season/join", token, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("rejoin: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	// Complete both seeded goals, then claim.
	progressPath := "/api/participations/" + participant.ID + "/progress"
	w = doJSON(t, r, http.MethodPost, progressPath, token, EventProgressRequest{
		Progress: map[string]int{"location_1": 1, "location_2": 1},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("progress: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	json.NewDecoder(w.Body).Decode(&participant)
	if participant.Status != loyalty.ParticipantCompleted {
		t.Fatalf("status = %q, want completed", participant.Status)
	}

	w = doJSON(t, r, http.MethodPost, "/api/participations/"+participant.ID+"/claim", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("claim: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Claiming twice conflicts.
	w = doJSON(t, r, http.MethodPost, "/api/participations/"+participant.ID+"/claim", token, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("reclaim: expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestNotificationsEndpoint(t *testing.T) {
	r, d := testRouter(t)
	token, _ := playerSession(t, d, 2012)

	// A successful check-in produces at least one notification.
	doJSON(t, r, http.MethodPost, "/api/checkins", token, CheckinRequest{
		LocationID: 1, Latitude: markMallLat, Longitude: markMallLon,
	})

	w := doJSON(t, r, http.MethodGet, "/api/notifications", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Notifications []loyalty.Notification `json:"notifications"`
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Notifications) == 0 {
		t.Fatal("expected at least one notification")
	}

	w = doJSON(t, r, http.MethodPost, "/api/notifications/read", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mark read: expected 200, got %d", w.Code)
	}
}

func TestLocationsEndpointSortsByDistance(t *testing.T) {
	r, _ := testRouter(t)

	// Standing at park-priozerny, it should come first.
	w := doJSON(t, r, http.MethodGet, "/api/locations?lat=50.501265&lon=30.754011", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Locations []LocationItem `json:"locations"`
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Locations) != 2 {
		t.Fatalf("got %d locations, want 2", len(resp.Locations))
	}
	if resp.Locations[0].Slug != "park-priozerny" {
		t.Errorf("nearest = %q, want park-priozerny", resp.Locations[0].Slug)
	}
	if resp.Locations[0].DistanceMeters == nil || *resp.Locations[0].DistanceMeters != 0 {
		t.Errorf("nearest distance = %v, want 0", resp.Locations[0].DistanceMeters)
	}
}

func TestAchievementsEndpoint(t *testing.T) {
	r, d := testRouter(t)
	token, _ := playerSession(t, d, 2013)

	w := doJSON(t, r, http.MethodGet, "/api/achievements", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Achievements []loyalty.AchievementStatus `json:"achievements"`
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Achievements) != 8 {
		t.Errorf("got %d achievements, want the seeded 8", len(resp.Achievements))
	}
}
