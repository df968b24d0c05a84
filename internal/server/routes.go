package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, d Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("PerkUp API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(d.Logger, d.DB, d.Redis))

	r.Post("/api/auth/telegram", handleTelegramAuth(d.Logger, d.DB, d.Store, d.BotToken))

	r.Get("/api/locations", handleListLocations(d.Store))
	r.Get("/api/games", handleListGames(d.Games))
	r.Get("/api/leaderboard", handleLeaderboard(d.Logger, d.DB, d.Leaderboard, d.Redis))
	r.Get("/api/events", handleListEvents(d.Events))
	r.Get("/api/events/{slug}", handleGetEvent(d.Events))

	// Player routes, bearer session token.
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(d.DB, d.Store))

		r.Get("/api/profile", handleProfile(d.Leaderboard))
		r.Post("/api/checkins", handleCheckin(d.Logger, d.Checkins, d.Achievements, d.Store))
		r.Get("/api/checkins", handleCheckinHistory(d.Checkins))
		r.Post("/api/games/{slug}/sessions", handleStartSession(d.Games))
		r.Post("/api/games/sessions/{sessionID}/finish", handleEndSession(d.Logger, d.Games, d.Achievements, d.Store))
		r.Get("/api/leaderboard/me", handleUserStats(d.Leaderboard))
		r.Post("/api/events/{slug}/join", handleJoinEvent(d.Events))
		r.Post("/api/participations/{participationID}/progress", handleEventProgress(d.Events))
		r.Post("/api/participations/{participationID}/claim", handleClaimRewards(d.Events))
		r.Get("/api/achievements", handleAchievements(d.Achievements))
		r.Get("/api/notifications", handleListNotifications(d.Store))
		r.Post("/api/notifications/read", handleMarkNotificationsRead(d.Store))
		r.Get("/api/notifications/stream", handleNotificationStream(d.Broker))
	})

	// Admin surface, cookie session.
	r.Post("/api/admin/login", handleAdminLogin(d.DB))
	r.Post("/api/admin/logout", handleAdminLogout(d.DB))
	r.Get("/api/admin/me", handleAdminMe(d.DB))

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(adminAuthMiddleware(d.DB))

		r.Get("/locations", handleAdminListLocations(d.Store))
		r.Post("/locations", handleAdminCreateLocation(d.DB))
		r.Put("/locations/{locationID}", handleAdminUpdateLocation(d.DB))
		r.Get("/games", handleAdminListGames(d.Store))
		r.Put("/games/{gameID}", handleAdminUpdateGame(d.DB))
		r.Get("/events", handleAdminListEvents(d.Store))
		r.Post("/events", handleAdminCreateEvent(d.Store))
		r.Put("/events/{eventID}", handleAdminUpdateEvent(d.Store))
	})
}
