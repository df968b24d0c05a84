package loyalty

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SQLiteStore implements Store on a libSQL/SQLite database. It owns the two
// atomicity guarantees the engine relies on: the duplicate check-in insert
// and the leaderboard accumulator upsert.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// sqliteTime matches strftime('%Y-%m-%dT%H:%M:%fZ', 'now') used by column
// defaults.
const sqliteTime = "2006-01-02T15:04:05.000Z"

func fmtTime(t time.Time) string {
	return t.UTC().Format(sqliteTime)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

const userColumns = `id, telegram_id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(photo_url, ''),
	points, experience, level, total_checkins, total_games_played, best_game_score, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	var createdAt string
	err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.PhotoURL,
		&u.Points, &u.Experience, &u.Level, &u.TotalCheckins, &u.TotalGamesPlayed, &u.BestGameScore, &createdAt)
	if err != nil {
		return User{}, err
	}
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

func (s *SQLiteStore) UserByID(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// UserByTelegramID is used by the auth surface to resolve Mini App logins.
func (s *SQLiteStore) UserByTelegramID(ctx context.Context, telegramID int64) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE telegram_id = ?
	`, telegramID))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// UpsertUser creates or refreshes a user from Telegram profile data and
// returns the stored row.
func (s *SQLiteStore) UpsertUser(ctx context.Context, telegramID int64, username, firstName, photoURL string) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		INSERT INTO users (telegram_id, username, first_name, photo_url)
		VALUES (?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''))
		ON CONFLICT(telegram_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			photo_url = excluded.photo_url
		RETURNING `+userColumns+`
	`, telegramID, username, firstName, photoURL))
	return u, err
}

func (s *SQLiteStore) CreditReward(ctx context.Context, userID int64, points, experience, level int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			points = points + ?,
			experience = experience + ?,
			level = MAX(level, ?)
		WHERE id = ?
	`, points, experience, level, userID)
	return err
}

const locationColumns = `id, slug, name, address, city, description, latitude, longitude,
	checkin_radius_meters, is_active, total_checkins`

func scanLocation(row interface{ Scan(...any) error }) (Location, error) {
	var l Location
	err := row.Scan(&l.ID, &l.Slug, &l.Name, &l.Address, &l.City, &l.Description,
		&l.Latitude, &l.Longitude, &l.RadiusMeters, &l.IsActive, &l.TotalCheckins)
	return l, err
}

func (s *SQLiteStore) LocationByID(ctx context.Context, id int64) (Location, error) {
	l, err := scanLocation(s.db.QueryRowContext(ctx, `
		SELECT `+locationColumns+` FROM locations WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Location{}, ErrNotFound
	}
	return l, err
}

func (s *SQLiteStore) ListLocations(ctx context.Context, activeOnly bool) ([]Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (s *SQLiteStore) ApplyCheckin(ctx context.Context, c *Checkin, newLevel int) (User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, err
	}
	defer tx.Rollback()

	// The UNIQUE (user_id, location_id, checkin_date) index settles the
	// cooldown race: a concurrent duplicate inserts nothing and returns no
	// row.
	err = tx.QueryRowContext(ctx, `
		INSERT INTO checkins (user_id, location_id, user_latitude, user_longitude,
			distance_meters, points_earned, experience_earned, checkin_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, location_id, checkin_date) DO NOTHING
		RETURNING id
	`, c.UserID, c.LocationID, c.UserLatitude, c.UserLongitude,
		c.DistanceMeters, c.PointsEarned, c.ExperienceEarned, c.CheckinDate, fmtTime(c.CreatedAt)).Scan(&c.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrDuplicate
	}
	if err != nil {
		return User{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE locations SET total_checkins = total_checkins + 1 WHERE id = ?
	`, c.LocationID); err != nil {
		return User{}, err
	}

	u, err := scanUser(tx.QueryRowContext(ctx, `
		UPDATE users SET
			points = points + ?,
			experience = experience + ?,
			total_checkins = total_checkins + 1,
			level = MAX(level, ?)
		WHERE id = ?
		RETURNING `+userColumns+`
	`, c.PointsEarned, c.ExperienceEarned, newLevel, c.UserID))
	if err != nil {
		return User{}, err
	}

	return u, tx.Commit()
}

const checkinColumns = `id, user_id, location_id, user_latitude, user_longitude,
	distance_meters, points_earned, experience_earned, checkin_date, created_at`

func scanCheckin(row interface{ Scan(...any) error }) (Checkin, error) {
	var c Checkin
	var createdAt string
	err := row.Scan(&c.ID, &c.UserID, &c.LocationID, &c.UserLatitude, &c.UserLongitude,
		&c.DistanceMeters, &c.PointsEarned, &c.ExperienceEarned, &c.CheckinDate, &createdAt)
	if err != nil {
		return Checkin{}, err
	}
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

func (s *SQLiteStore) LastCheckin(ctx context.Context, userID, locationID int64) (*Checkin, error) {
	c, err := scanCheckin(s.db.QueryRowContext(ctx, `
		SELECT `+checkinColumns+` FROM checkins
		WHERE user_id = ? AND location_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, locationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) UserCheckins(ctx context.Context, userID int64, page, perPage int) ([]Checkin, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM checkins WHERE user_id = ?
	`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+checkinColumns+` FROM checkins
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var checkins []Checkin
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, 0, err
		}
		checkins = append(checkins, c)
	}
	return checkins, total, rows.Err()
}

const gameColumns = `id, slug, name, description, points_conversion_rate, max_points_per_game, is_active`

func scanGame(row interface{ Scan(...any) error }) (Game, error) {
	var g Game
	err := row.Scan(&g.ID, &g.Slug, &g.Name, &g.Description, &g.PointsConversionRate, &g.MaxPointsPerGame, &g.IsActive)
	return g, err
}

func (s *SQLiteStore) GameByID(ctx context.Context, id int64) (Game, error) {
	g, err := scanGame(s.db.QueryRowContext(ctx, `
		SELECT `+gameColumns+` FROM games WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Game{}, ErrNotFound
	}
	return g, err
}

func (s *SQLiteStore) GameBySlug(ctx context.Context, slug string) (Game, error) {
	g, err := scanGame(s.db.QueryRowContext(ctx, `
		SELECT `+gameColumns+` FROM games WHERE slug = ?
	`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return Game{}, ErrNotFound
	}
	return g, err
}

func (s *SQLiteStore) ListGames(ctx context.Context, activeOnly bool) ([]Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, sess *GameSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO game_sessions (id, user_id, game_id, platform, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, sess.ID, sess.UserID, sess.GameID, sess.Platform, fmtTime(sess.StartedAt))
	return err
}

func (s *SQLiteStore) SessionByID(ctx context.Context, id string) (GameSession, error) {
	var sess GameSession
	var startedAt string
	var completedAt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, game_id, score, duration_seconds, points_earned,
			experience_earned, platform, is_completed, started_at, completed_at
		FROM game_sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.UserID, &sess.GameID, &sess.Score, &sess.DurationSeconds,
		&sess.PointsEarned, &sess.ExperienceEarned, &sess.Platform, &sess.IsCompleted, &startedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return GameSession{}, ErrNotFound
	}
	if err != nil {
		return GameSession{}, err
	}
	sess.StartedAt = parseTime(startedAt)
	sess.CompletedAt = parseNullTime(completedAt)
	return sess, nil
}

func (s *SQLiteStore) FinalizeSession(ctx context.Context, sess *GameSession, newLevel int, upserts []ScoreUpsert) (User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, err
	}
	defer tx.Rollback()

	// Guarded flip of the completed flag; a concurrent second finalize
	// matches zero rows.
	result, err := tx.ExecContext(ctx, `
		UPDATE game_sessions SET
			score = ?, duration_seconds = ?, points_earned = ?, experience_earned = ?,
			is_completed = 1, completed_at = ?
		WHERE id = ? AND is_completed = 0
	`, sess.Score, sess.DurationSeconds, sess.PointsEarned, sess.ExperienceEarned,
		fmtTime(*sess.CompletedAt), sess.ID)
	if err != nil {
		return User{}, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return User{}, ErrAlreadyFinalized
	}

	u, err := scanUser(tx.QueryRowContext(ctx, `
		UPDATE users SET
			points = points + ?,
			experience = experience + ?,
			total_games_played = total_games_played + 1,
			best_game_score = MAX(best_game_score, ?),
			level = MAX(level, ?)
		WHERE id = ?
		RETURNING `+userColumns+`
	`, sess.PointsEarned, sess.ExperienceEarned, sess.Score, newLevel, sess.UserID))
	if err != nil {
		return User{}, err
	}

	// Accumulators are additive upserts, never read-then-write of the row.
	for _, up := range upserts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO leaderboard (user_id, game_id, period_type, period_date,
				total_score, best_score, games_played)
			VALUES (?, ?, ?, ?, ?, ?, 1)
			ON CONFLICT(user_id, game_id, period_type, period_date) DO UPDATE SET
				total_score = total_score + excluded.total_score,
				best_score = MAX(best_score, excluded.best_score),
				games_played = games_played + 1,
				updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		`, up.UserID, up.GameID, string(up.Period), up.BucketDate.Format(time.DateOnly),
			up.Score, up.Score); err != nil {
			return User{}, err
		}
	}

	return u, tx.Commit()
}

func (s *SQLiteStore) TopEntries(ctx context.Context, gameID int64, period Period, bucket time.Time, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.user_id, COALESCE(u.username, ''), COALESCE(u.first_name, ''), COALESCE(u.photo_url, ''),
			l.total_score, l.best_score, l.games_played
		FROM leaderboard l
		JOIN users u ON u.id = l.user_id
		WHERE l.game_id = ? AND l.period_type = ? AND l.period_date = ?
		ORDER BY l.total_score DESC, l.user_id
		LIMIT ?
	`, gameID, string(period), bucket.Format(time.DateOnly), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.FirstName, &e.PhotoURL,
			&e.TotalScore, &e.BestScore, &e.GamesPlayed); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) UserEntry(ctx context.Context, userID, gameID int64, period Period, bucket time.Time) (*LeaderboardEntry, error) {
	var e LeaderboardEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT l.user_id, COALESCE(u.username, ''), COALESCE(u.first_name, ''), COALESCE(u.photo_url, ''),
			l.total_score, l.best_score, l.games_played
		FROM leaderboard l
		JOIN users u ON u.id = l.user_id
		WHERE l.user_id = ? AND l.game_id = ? AND l.period_type = ? AND l.period_date = ?
	`, userID, gameID, string(period), bucket.Format(time.DateOnly)).Scan(
		&e.UserID, &e.Username, &e.FirstName, &e.PhotoURL, &e.TotalScore, &e.BestScore, &e.GamesPlayed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) CountGreater(ctx context.Context, gameID int64, period Period, bucket time.Time, totalScore int) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM leaderboard
		WHERE game_id = ? AND period_type = ? AND period_date = ? AND total_score > ?
	`, gameID, string(period), bucket.Format(time.DateOnly), totalScore).Scan(&count)
	return count, err
}

const eventColumns = `id, slug, title, description, event_type, starts_at, ends_at,
	requirements, rewards, max_participants, current_participants, status, is_featured`

func scanEvent(row interface{ Scan(...any) error }) (Event, error) {
	var e Event
	var startsAt, endsAt string
	var requirements, rewards string
	var maxParticipants sql.NullInt64
	err := row.Scan(&e.ID, &e.Slug, &e.Title, &e.Description, &e.EventType, &startsAt, &endsAt,
		&requirements, &rewards, &maxParticipants, &e.CurrentParticipants, &e.Status, &e.IsFeatured)
	if err != nil {
		return Event{}, err
	}
	e.StartsAt = parseTime(startsAt)
	e.EndsAt = parseTime(endsAt)
	e.Requirements = []byte(requirements)
	e.Rewards = []byte(rewards)
	if maxParticipants.Valid {
		m := int(maxParticipants.Int64)
		e.MaxParticipants = &m
	}
	return e, nil
}

func (s *SQLiteStore) ListEvents(ctx context.Context, filter EventFilter) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`
	args := []any{}
	now := fmtTime(filter.Now)

	switch filter.Status {
	case "active":
		query += ` AND status = 'active' AND starts_at <= ? AND ends_at >= ?`
		args = append(args, now, now)
	case "upcoming":
		query += ` AND status = 'active' AND starts_at > ?`
		args = append(args, now)
	case "past":
		query += ` AND ends_at < ?`
		args = append(args, now)
	}
	if filter.EventType != "" {
		query += ` AND event_type = ?`
		args = append(args, filter.EventType)
	}
	if filter.FeaturedOnly {
		query += ` AND is_featured = 1`
	}
	query += ` ORDER BY starts_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *SQLiteStore) EventBySlug(ctx context.Context, slug string) (Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, `
		SELECT `+eventColumns+` FROM events WHERE slug = ?
	`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, ErrNotFound
	}
	return e, err
}

func (s *SQLiteStore) EventByID(ctx context.Context, id string) (Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, `
		SELECT `+eventColumns+` FROM events WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, ErrNotFound
	}
	return e, err
}

const participantColumns = `id, event_id, user_id, status, progress, progress_percentage,
	completed_at, rewards_claimed, rewards_claimed_at, joined_at`

func scanParticipant(row interface{ Scan(...any) error }) (EventParticipant, error) {
	var p EventParticipant
	var progress, joinedAt string
	var completedAt, claimedAt sql.NullString
	err := row.Scan(&p.ID, &p.EventID, &p.UserID, &p.Status, &progress, &p.ProgressPercentage,
		&completedAt, &p.RewardsClaimed, &claimedAt, &joinedAt)
	if err != nil {
		return EventParticipant{}, err
	}
	p.Progress = []byte(progress)
	p.CompletedAt = parseNullTime(completedAt)
	p.RewardsClaimedAt = parseNullTime(claimedAt)
	p.JoinedAt = parseTime(joinedAt)
	return p, nil
}

func (s *SQLiteStore) Participation(ctx context.Context, eventID string, userID int64) (*EventParticipant, error) {
	p, err := scanParticipant(s.db.QueryRowContext(ctx, `
		SELECT `+participantColumns+` FROM event_participants
		WHERE event_id = ? AND user_id = ?
	`, eventID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) ParticipantByID(ctx context.Context, id string) (EventParticipant, error) {
	p, err := scanParticipant(s.db.QueryRowContext(ctx, `
		SELECT `+participantColumns+` FROM event_participants WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return EventParticipant{}, ErrNotFound
	}
	return p, err
}

func (s *SQLiteStore) AddParticipant(ctx context.Context, p *EventParticipant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Capacity is enforced by the guarded counter increment, so two
	// concurrent joins cannot both take the last slot.
	result, err := tx.ExecContext(ctx, `
		UPDATE events SET current_participants = current_participants + 1
		WHERE id = ? AND (max_participants IS NULL OR current_participants < max_participants)
	`, p.EventID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrCapacityReached
	}

	result, err = tx.ExecContext(ctx, `
		INSERT INTO event_participants (id, event_id, user_id, status, progress, joined_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id, user_id) DO NOTHING
	`, p.ID, p.EventID, p.UserID, p.Status, string(p.Progress), fmtTime(p.JoinedAt))
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrDuplicate
	}

	return tx.Commit()
}

func (s *SQLiteStore) SaveParticipant(ctx context.Context, p *EventParticipant) error {
	var completedAt, claimedAt any
	if p.CompletedAt != nil {
		completedAt = fmtTime(*p.CompletedAt)
	}
	if p.RewardsClaimedAt != nil {
		claimedAt = fmtTime(*p.RewardsClaimedAt)
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE event_participants SET
			status = ?, progress = ?, progress_percentage = ?,
			completed_at = ?, rewards_claimed = ?, rewards_claimed_at = ?
		WHERE id = ?
	`, p.Status, string(p.Progress), p.ProgressPercentage, completedAt, p.RewardsClaimed, claimedAt, p.ID)
	return err
}

// CreateEvent is used by the admin surface and tests.
func (s *SQLiteStore) CreateEvent(ctx context.Context, e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if len(e.Requirements) == 0 {
		e.Requirements = []byte("{}")
	}
	if len(e.Rewards) == 0 {
		e.Rewards = []byte("{}")
	}
	var maxParticipants any
	if e.MaxParticipants != nil {
		maxParticipants = *e.MaxParticipants
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, slug, title, description, event_type, starts_at, ends_at,
			requirements, rewards, max_participants, status, is_featured)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Slug, e.Title, e.Description, e.EventType, fmtTime(e.StartsAt), fmtTime(e.EndsAt),
		string(e.Requirements), string(e.Rewards), maxParticipants, e.Status, e.IsFeatured)
	return err
}

// UpdateEvent rewrites an event's mutable fields.
func (s *SQLiteStore) UpdateEvent(ctx context.Context, e *Event) error {
	var maxParticipants any
	if e.MaxParticipants != nil {
		maxParticipants = *e.MaxParticipants
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE events SET
			title = ?, description = ?, event_type = ?, starts_at = ?, ends_at = ?,
			requirements = ?, rewards = ?, max_participants = ?, status = ?, is_featured = ?
		WHERE id = ?
	`, e.Title, e.Description, e.EventType, fmtTime(e.StartsAt), fmtTime(e.EndsAt),
		string(e.Requirements), string(e.Rewards), maxParticipants, e.Status, e.IsFeatured, e.ID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const achievementColumns = `id, slug, name, description, category, requirements,
	points_reward, experience_reward, is_active, sort_order`

func (s *SQLiteStore) ListAchievements(ctx context.Context, activeOnly bool) ([]Achievement, error) {
	query := `SELECT ` + achievementColumns + ` FROM achievements`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY sort_order, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var achievements []Achievement
	for rows.Next() {
		var a Achievement
		var requirements string
		if err := rows.Scan(&a.ID, &a.Slug, &a.Name, &a.Description, &a.Category, &requirements,
			&a.PointsReward, &a.ExperienceReward, &a.IsActive, &a.SortOrder); err != nil {
			return nil, err
		}
		a.Requirements = []byte(requirements)
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

func (s *SQLiteStore) UserAchievements(ctx context.Context, userID int64) (map[int64]UserAchievement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, achievement_id, progress, progress_percentage, is_completed, completed_at
		FROM user_achievements WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	achievements := make(map[int64]UserAchievement)
	for rows.Next() {
		var ua UserAchievement
		var progress string
		var completedAt sql.NullString
		if err := rows.Scan(&ua.ID, &ua.UserID, &ua.AchievementID, &progress,
			&ua.ProgressPercentage, &ua.IsCompleted, &completedAt); err != nil {
			return nil, err
		}
		ua.Progress = []byte(progress)
		ua.CompletedAt = parseNullTime(completedAt)
		achievements[ua.AchievementID] = ua
	}
	return achievements, rows.Err()
}

func (s *SQLiteStore) SaveUserAchievement(ctx context.Context, ua *UserAchievement) error {
	var completedAt any
	if ua.CompletedAt != nil {
		completedAt = fmtTime(*ua.CompletedAt)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_achievements (id, user_id, achievement_id, progress, progress_percentage,
			is_completed, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, achievement_id) DO UPDATE SET
			progress = excluded.progress,
			progress_percentage = excluded.progress_percentage,
			is_completed = excluded.is_completed,
			completed_at = excluded.completed_at,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, ua.ID, ua.UserID, ua.AchievementID, string(ua.Progress), ua.ProgressPercentage,
		ua.IsCompleted, completedAt)
	return err
}

func (s *SQLiteStore) SaveNotification(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if len(n.Payload) == 0 {
		n.Payload = []byte("{}")
	}
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, body, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING created_at
	`, n.ID, n.UserID, n.Type, n.Title, n.Body, string(n.Payload)).Scan(&createdAt)
	if err != nil {
		return err
	}
	n.CreatedAt = parseTime(createdAt)
	return nil
}

func (s *SQLiteStore) UserNotifications(ctx context.Context, userID int64, limit int) ([]Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, title, body, payload, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []Notification{}
	for rows.Next() {
		var n Notification
		var payload, createdAt string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &payload, &n.IsRead, &createdAt); err != nil {
			return nil, err
		}
		n.Payload = []byte(payload)
		n.CreatedAt = parseTime(createdAt)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *SQLiteStore) MarkNotificationsRead(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0
	`, userID)
	return err
}
