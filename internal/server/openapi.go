package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/KILATIV100/perkup-ecosystem/internal/loyalty"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "PerkUp API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Loyalty and gamification backend for the PerkUp coffee-shop network.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/auth/telegram
	postAuth, _ := r.NewOperationContext(http.MethodPost, "/api/auth/telegram")
	postAuth.SetSummary("Authenticate via Telegram")
	postAuth.SetDescription("Validates Telegram Mini App init data and returns a session token.")
	postAuth.AddReqStructure(AuthRequest{})
	postAuth.AddRespStructure(AuthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAuth.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postAuth)

	// GET /api/locations
	getLocations, _ := r.NewOperationContext(http.MethodGet, "/api/locations")
	getLocations.SetSummary("List locations")
	getLocations.SetDescription("Active coffee-shop locations, sorted nearest-first when lat/lon are passed.")
	getLocations.AddRespStructure(map[string][]LocationItem{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getLocations)

	// GET /api/profile
	getProfile, _ := r.NewOperationContext(http.MethodGet, "/api/profile")
	getProfile.SetSummary("Current user profile")
	getProfile.SetDescription("Profile, level progress and per-period stats. Requires Bearer token.")
	getProfile.AddRespStructure(ProfileResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getProfile.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getProfile)

	// POST /api/checkins
	postCheckin, _ := r.NewOperationContext(http.MethodPost, "/api/checkins")
	postCheckin.SetSummary("Check in at a location")
	postCheckin.SetDescription("Geofenced daily check-in. Requires Bearer token.")
	postCheckin.AddReqStructure(CheckinRequest{})
	postCheckin.AddRespStructure(loyalty.CheckinResult{}, openapi.WithHTTPStatus(http.StatusOK))
	postCheckin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postCheckin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(postCheckin)

	// GET /api/checkins
	getCheckins, _ := r.NewOperationContext(http.MethodGet, "/api/checkins")
	getCheckins.SetSummary("Check-in history")
	getCheckins.SetDescription("Paginated check-in history, newest first. Requires Bearer token.")
	getCheckins.AddRespStructure(CheckinHistoryResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getCheckins)

	// GET /api/games
	getGames, _ := r.NewOperationContext(http.MethodGet, "/api/games")
	getGames.SetSummary("List games")
	getGames.AddRespStructure(map[string][]loyalty.Game{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getGames)

	// POST /api/games/{slug}/sessions
	postSession, _ := r.NewOperationContext(http.MethodPost, "/api/games/{slug}/sessions")
	postSession.SetSummary("Start game session")
	postSession.SetDescription("Opens a server-side session for score validation. Requires Bearer token.")
	postSession.AddReqStructure(StartSessionRequest{})
	postSession.AddRespStructure(loyalty.GameSession{}, openapi.WithHTTPStatus(http.StatusCreated))
	postSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postSession)

	// POST /api/games/sessions/{sessionID}/finish
	postFinish, _ := r.NewOperationContext(http.MethodPost, "/api/games/sessions/{sessionID}/finish")
	postFinish.SetSummary("Finish game session")
	postFinish.SetDescription("Validates the score, awards points and experience, updates leaderboards. Requires Bearer token.")
	postFinish.AddReqStructure(EndSessionRequest{})
	postFinish.AddRespStructure(loyalty.GameResult{}, openapi.WithHTTPStatus(http.StatusOK))
	postFinish.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postFinish.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(postFinish)

	// GET /api/leaderboard
	getLeaderboard, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboard")
	getLeaderboard.SetSummary("Leaderboard")
	getLeaderboard.SetDescription("Top entries for a period and game. Includes the caller's rank when a Bearer token is passed.")
	getLeaderboard.AddRespStructure(loyalty.Page{}, openapi.WithHTTPStatus(http.StatusOK))
	getLeaderboard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getLeaderboard)

	// GET /api/leaderboard/me
	getMyStats, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboard/me")
	getMyStats.SetSummary("My leaderboard stats")
	getMyStats.SetDescription("Caller's score and rank across all periods. Requires Bearer token.")
	getMyStats.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getMyStats)

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("List events")
	getEvents.AddRespStructure(map[string][]loyalty.Event{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getEvents)

	// GET /api/events/{slug}
	getEvent, _ := r.NewOperationContext(http.MethodGet, "/api/events/{slug}")
	getEvent.SetSummary("Event details")
	getEvent.AddRespStructure(loyalty.Event{}, openapi.WithHTTPStatus(http.StatusOK))
	getEvent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getEvent)

	// POST /api/events/{slug}/join
	postJoin, _ := r.NewOperationContext(http.MethodPost, "/api/events/{slug}/join")
	postJoin.SetSummary("Join event")
	postJoin.SetDescription("Joins an active event, checking gates and capacity. Requires Bearer token.")
	postJoin.AddRespStructure(loyalty.EventParticipant{}, openapi.WithHTTPStatus(http.StatusCreated))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postJoin)

	// POST /api/participations/{participationID}/progress
	postProgress, _ := r.NewOperationContext(http.MethodPost, "/api/participations/{participationID}/progress")
	postProgress.SetSummary("Report event progress")
	postProgress.AddReqStructure(EventProgressRequest{})
	postProgress.AddRespStructure(loyalty.EventParticipant{}, openapi.WithHTTPStatus(http.StatusOK))
	postProgress.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postProgress)

	// POST /api/participations/{participationID}/claim
	postClaim, _ := r.NewOperationContext(http.MethodPost, "/api/participations/{participationID}/claim")
	postClaim.SetSummary("Claim event rewards")
	postClaim.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postClaim.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postClaim)

	// GET /api/achievements
	getAchievements, _ := r.NewOperationContext(http.MethodGet, "/api/achievements")
	getAchievements.SetSummary("Achievement catalog with progress")
	getAchievements.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getAchievements)

	// GET /api/notifications
	getNotifications, _ := r.NewOperationContext(http.MethodGet, "/api/notifications")
	getNotifications.SetSummary("List notifications")
	getNotifications.AddRespStructure(map[string][]loyalty.Notification{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getNotifications)

	// POST /api/notifications/read
	postRead, _ := r.NewOperationContext(http.MethodPost, "/api/notifications/read")
	postRead.SetSummary("Mark notifications read")
	postRead.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postRead)

	// GET /api/notifications/stream
	getStream, _ := r.NewOperationContext(http.MethodGet, "/api/notifications/stream")
	getStream.SetSummary("SSE notification stream")
	getStream.SetDescription("Server-Sent Events stream of reward and event notifications. Requires Bearer token.")
	getStream.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getStream)

	// POST /api/admin/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postLogin.SetSummary("Admin login")
	postLogin.SetDescription("Authenticate with email and password. Sets admin_session cookie.")
	postLogin.AddReqStructure(AdminLoginRequest{})
	postLogin.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/admin/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postLogout.SetSummary("Admin logout")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/admin/me
	getAdminMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	getAdminMe.SetSummary("Current admin")
	getAdminMe.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getAdminMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getAdminMe)

	// GET /api/admin/locations
	adminLocations, _ := r.NewOperationContext(http.MethodGet, "/api/admin/locations")
	adminLocations.SetSummary("List all locations")
	adminLocations.SetDescription("Includes inactive locations. Requires admin_session cookie.")
	adminLocations.AddRespStructure(map[string][]loyalty.Location{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(adminLocations)

	// POST /api/admin/locations
	createLocation, _ := r.NewOperationContext(http.MethodPost, "/api/admin/locations")
	createLocation.SetSummary("Create location")
	createLocation.AddReqStructure(AdminLocationRequest{})
	createLocation.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusCreated))
	createLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(createLocation)

	// PUT /api/admin/locations/{locationID}
	updateLocation, _ := r.NewOperationContext(http.MethodPut, "/api/admin/locations/{locationID}")
	updateLocation.SetSummary("Update location")
	updateLocation.AddReqStructure(AdminLocationRequest{})
	updateLocation.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	updateLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateLocation)

	// GET /api/admin/games
	adminGames, _ := r.NewOperationContext(http.MethodGet, "/api/admin/games")
	adminGames.SetSummary("List all games")
	adminGames.AddRespStructure(map[string][]loyalty.Game{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(adminGames)

	// PUT /api/admin/games/{gameID}
	updateGame, _ := r.NewOperationContext(http.MethodPut, "/api/admin/games/{gameID}")
	updateGame.SetSummary("Update game economy")
	updateGame.AddReqStructure(AdminGameRequest{})
	updateGame.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	updateGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateGame)

	// GET /api/admin/events
	adminEvents, _ := r.NewOperationContext(http.MethodGet, "/api/admin/events")
	adminEvents.SetSummary("List all events")
	adminEvents.AddRespStructure(map[string][]loyalty.Event{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(adminEvents)

	// POST /api/admin/events
	createEvent, _ := r.NewOperationContext(http.MethodPost, "/api/admin/events")
	createEvent.SetSummary("Create event")
	createEvent.AddReqStructure(AdminEventRequest{})
	createEvent.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusCreated))
	createEvent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(createEvent)

	// PUT /api/admin/events/{eventID}
	updateEvent, _ := r.NewOperationContext(http.MethodPut, "/api/admin/events/{eventID}")
	updateEvent.SetSummary("Update event")
	updateEvent.AddReqStructure(AdminEventRequest{})
	updateEvent.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	updateEvent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateEvent)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
