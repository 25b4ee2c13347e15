package game

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/playmatatu/slamdunk/internal/config"
	"github.com/playmatatu/slamdunk/internal/models"
)

var (
	// ErrTableNotFound is returned when no live or cached table has the token.
	ErrTableNotFound = errors.New("table not found")
	// ErrTableClosed is returned for operations on a closed table.
	ErrTableClosed = errors.New("table is closed")
)

// Redis keys and channels.
const (
	EventsChannel = "table_events"
	IdleSet       = "table_idle"
)

func stateKey(token string) string      { return "table:" + token + ":state" }
func lastActiveKey(token string) string { return "table:" + token + ":last_active" }

// Event types published on EventsChannel.
const (
	PublishTableState  = "table_state"
	PublishPocketed    = "pocketed"
	PublishTableReset  = "table_reset"
	PublishTableClosed = "table_closed"
)

// EventBroadcaster delivers published events locally when Redis is not configured.
type EventBroadcaster interface {
	BroadcastEvent(token string, payload map[string]interface{})
}

// TableSession is one live table and its engine.
type TableSession struct {
	ID           string
	Token        string
	Engine       *Engine
	Animator     *Animator
	Status       TableStatus
	CreatedAt    time.Time
	LastActivity time.Time

	mu     sync.Mutex
	moving bool
}

func (s *TableSession) touch() {
	s.mu.Lock()
	s.LastActivity = time.Now()
	s.mu.Unlock()
}

// IsClosed reports whether the session was closed.
func (s *TableSession) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Status == StatusClosed
}

// TableRequest overrides the configured table defaults. Zero fields keep the defaults.
type TableRequest struct {
	Profile     string  `json:"profile"`
	TargetBalls int     `json:"target_balls"`
	Width       float64 `json:"width"`
	Length      float64 `json:"length"`
}

// TableManager manages all live tables
type TableManager struct {
	tables map[string]*TableSession // keyed by token
	rdb    *redis.Client
	db     *sqlx.DB
	config *config.Config
	sink   CommandSink
	local  EventBroadcaster
	mu     sync.RWMutex
}

var (
	// Global table manager instance
	Manager *TableManager
)

// InitializeManager initializes the global table manager with Redis, DB and config
func InitializeManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	Manager = NewTableManager(db, rdb, cfg)
}

// NewTableManager creates a new table manager. db and rdb may be nil.
func NewTableManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *TableManager {
	return &TableManager{
		tables: make(map[string]*TableSession),
		rdb:    rdb,
		db:     db,
		config: cfg,
	}
}

// SetSink routes motion commands and local events to a transport such as the websocket hub.
func (tm *TableManager) SetSink(sink CommandSink) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.sink = sink
	if b, ok := sink.(EventBroadcaster); ok {
		tm.local = b
	}
}

// SendCommand forwards to the current sink so engines created before SetSink still reach it.
func (tm *TableManager) SendCommand(tableID string, cmd MotionCommand) {
	tm.mu.RLock()
	sink := tm.sink
	tm.mu.RUnlock()
	if sink != nil {
		sink.SendCommand(tableID, cmd)
	}
}

// generateToken generates a secure random token
func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func generateTableID() string {
	return "table_" + generateToken(8)
}

func (tm *TableManager) tableOptions(req TableRequest) TableOptions {
	opts := TableOptions{
		Width:       tm.config.TableWidth,
		Length:      tm.config.TableLength,
		BallRadius:  tm.config.BallRadius,
		TargetBalls: tm.config.TargetBalls,
		RackSpacing: tm.config.RackSpacing,
	}
	if req.Width > 0 {
		opts.Width = req.Width
	}
	if req.Length > 0 {
		opts.Length = req.Length
	}
	if req.TargetBalls > 0 {
		opts.TargetBalls = req.TargetBalls
	}
	return opts
}

func (tm *TableManager) newSession(id, token string, opts TableOptions, tuning Tuning) (*TableSession, error) {
	animator := NewAnimator()
	mirror := &Mirror{Local: animator, Sink: tm, TableID: token}
	engine, err := NewEngine(EngineOptions{
		Table:  opts,
		Tuning: tuning,
		Motion: mirror,
		Logger: log.Default().WithPrefix("engine").With("table", token),
		Strict: tm.config.StrictInvariants,
	})
	if err != nil {
		return nil, err
	}
	mirror.Rotation = engine.WorldRotation

	now := time.Now()
	return &TableSession{
		ID:           id,
		Token:        token,
		Engine:       engine,
		Animator:     animator,
		Status:       StatusOpen,
		CreatedAt:    now,
		LastActivity: now,
	}, nil
}

// CreateTable racks a new table and registers it.
func (tm *TableManager) CreateTable(req TableRequest) (*TableSession, error) {
	profile := req.Profile
	path := ""
	if profile == "" {
		profile = tm.config.TuningProfile
		path = tm.config.TuningPath
	}
	tuning, err := LoadTuning(profile, path)
	if err != nil {
		return nil, err
	}

	s, err := tm.newSession(generateTableID(), generateToken(16), tm.tableOptions(req), tuning)
	if err != nil {
		return nil, err
	}

	tm.mu.Lock()
	tm.tables[s.Token] = s
	tm.mu.Unlock()

	log.Info("[TABLE] created", "id", s.ID, "token", s.Token, "profile", tuning.Name, "targets", s.Engine.Table().TargetBalls)

	if tm.db != nil {
		t := s.Engine.Table()
		_, err := tm.db.Exec(tm.db.Rebind(`INSERT INTO tables (token, table_id, profile, width, length, ball_radius, target_balls, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			s.Token, s.ID, tuning.Name, t.Width, t.Length, t.BallRadius, t.TargetBalls, string(StatusOpen))
		if err != nil {
			log.Warn("[DB] failed to insert table", "token", s.Token, "error", err)
		}
	}

	if err := tm.SaveToRedis(s); err != nil {
		log.Warn("[TABLE] failed to cache table", "token", s.Token, "error", err)
	}
	tm.Touch(s)
	return s, nil
}

// GetTableByToken returns a live table, rehydrating it from Redis if this
// process doesn't hold it.
func (tm *TableManager) GetTableByToken(token string) (*TableSession, error) {
	tm.mu.RLock()
	s, ok := tm.tables[token]
	tm.mu.RUnlock()
	if ok {
		return s, nil
	}

	s, err := tm.LoadFromRedis(token)
	if err != nil {
		return nil, err
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()
	if existing, ok := tm.tables[token]; ok {
		return existing, nil
	}
	tm.tables[token] = s
	log.Info("[TABLE] rehydrated from redis", "token", token)
	return s, nil
}

// ActiveTableCount returns the number of tables held in memory.
func (tm *TableManager) ActiveTableCount() int {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return len(tm.tables)
}

// IdleTokens returns the tokens of in-memory tables last touched before cutoff.
func (tm *TableManager) IdleTokens(cutoff time.Time) []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	var tokens []string
	for token, s := range tm.tables {
		s.mu.Lock()
		idle := s.LastActivity.Before(cutoff)
		s.mu.Unlock()
		if idle {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// tableCache is the Redis form of a session.
type tableCache struct {
	ID           string        `json:"id"`
	Token        string        `json:"token"`
	Status       TableStatus   `json:"status"`
	Tuning       Tuning        `json:"tuning"`
	Snapshot     TableSnapshot `json:"snapshot"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActivity time.Time     `json:"last_activity"`
}

// SaveToRedis caches the table snapshot under table:<token>:state.
func (tm *TableManager) SaveToRedis(s *TableSession) error {
	if tm.rdb == nil {
		return nil
	}

	s.mu.Lock()
	entry := tableCache{
		ID:           s.ID,
		Token:        s.Token,
		Status:       s.Status,
		Tuning:       s.Engine.Tuning(),
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
	}
	s.mu.Unlock()
	entry.Snapshot = s.Engine.Snapshot()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	ttl := time.Duration(tm.config.SnapshotTTLMinutes) * time.Minute
	return tm.rdb.SetEx(context.Background(), stateKey(s.Token), data, ttl).Err()
}

// LoadFromRedis rebuilds a session from its cached snapshot. Restored balls are idle.
func (tm *TableManager) LoadFromRedis(token string) (*TableSession, error) {
	if tm.rdb == nil {
		return nil, ErrTableNotFound
	}

	data, err := tm.rdb.Get(context.Background(), stateKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load table %s: %w", token, err)
	}

	var entry tableCache
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode table %s: %w", token, err)
	}
	if entry.Status == StatusClosed {
		return nil, ErrTableClosed
	}
	if entry.Snapshot.Table == nil {
		return nil, fmt.Errorf("cached table %s has no geometry", token)
	}

	t := entry.Snapshot.Table
	opts := TableOptions{
		Origin:      t.Origin,
		Width:       t.Width,
		Length:      t.Length,
		BallRadius:  t.BallRadius,
		TargetBalls: t.TargetBalls,
		RackSpacing: t.RackSpacing,
	}
	s, err := tm.newSession(entry.ID, entry.Token, opts, entry.Tuning)
	if err != nil {
		return nil, err
	}
	// Balls come back at rest; a shot in flight when the table was cached is lost.
	s.Engine.Restore(entry.Snapshot)
	s.CreatedAt = entry.CreatedAt
	s.LastActivity = entry.LastActivity
	return s, nil
}

// CloseTable persists the final snapshot and forgets the table.
func (tm *TableManager) CloseTable(token, reason string) error {
	s, err := tm.GetTableByToken(token)
	if err != nil {
		return err
	}
	tm.mu.Lock()
	delete(tm.tables, token)
	tm.mu.Unlock()

	s.mu.Lock()
	if s.Status == StatusClosed {
		s.mu.Unlock()
		return ErrTableClosed
	}
	s.Status = StatusClosed
	s.mu.Unlock()

	snap := s.Engine.Snapshot()
	log.Info("[TABLE] closed", "token", token, "reason", reason, "shots", snap.Shots)

	if tm.db != nil {
		final, _ := json.Marshal(snap)
		_, err := tm.db.Exec(tm.db.Rebind(`UPDATE tables SET status = ?, close_reason = ?, final_state = ?, closed_at = CURRENT_TIMESTAMP WHERE token = ?`),
			string(StatusClosed), reason, string(final), token)
		if err != nil {
			log.Warn("[DB] failed to close table", "token", token, "error", err)
		}
	}

	if tm.rdb != nil {
		ctx := context.Background()
		tm.rdb.Del(ctx, stateKey(token), lastActiveKey(token))
		tm.rdb.ZRem(ctx, IdleSet, token)
	}

	tm.PublishEvent(token, PublishTableClosed, map[string]interface{}{"reason": reason, "state": snap})
	return nil
}

// Touch records activity and pushes the table's idle deadline back.
func (tm *TableManager) Touch(s *TableSession) {
	s.touch()
	if tm.rdb == nil {
		return
	}
	ctx := context.Background()
	now := time.Now().Unix()
	deadline := now + int64(tm.config.TableIdleMinutes)*60
	tm.rdb.Set(ctx, lastActiveKey(s.Token), fmt.Sprintf("%d", now), 0)
	tm.rdb.ZAdd(ctx, IdleSet, redis.Z{Score: float64(deadline), Member: s.Token})
}

// PublishEvent sends an event to every process serving the table.
func (tm *TableManager) PublishEvent(token, eventType string, fields map[string]interface{}) {
	payload := map[string]interface{}{"type": eventType, "table_token": token}
	for k, v := range fields {
		payload[k] = v
	}

	if tm.rdb == nil {
		tm.mu.RLock()
		local := tm.local
		tm.mu.RUnlock()
		if local != nil {
			local.BroadcastEvent(token, payload)
		}
		return
	}

	b, err := json.Marshal(payload)
	if err != nil {
		log.Warn("[TABLE] failed to encode event", "type", eventType, "error", err)
		return
	}
	if err := tm.rdb.Publish(context.Background(), EventsChannel, b).Err(); err != nil {
		log.Warn("[TABLE] publish failed", "token", token, "type", eventType, "error", err)
	}
}

func (tm *TableManager) openSession(s *TableSession) error {
	if s.IsClosed() {
		return ErrTableClosed
	}
	return nil
}

// Shoot strikes the cue ball and records the shot.
func (tm *TableManager) Shoot(s *TableSession, shot Shot) (ShotResult, error) {
	if err := tm.openSession(s); err != nil {
		return ShotResult{}, err
	}
	res, err := s.Engine.Shoot(shot)
	if err != nil {
		return res, err
	}
	tm.Touch(s)
	if res.Applied {
		s.mu.Lock()
		s.moving = true
		s.mu.Unlock()
		tm.RecordShot(s, shot, res)
	}
	tm.afterChange(s)
	return res, nil
}

// ContactBegin resolves a begin-contact notification from the table's host.
func (tm *TableManager) ContactBegin(s *TableSession, c Contact) (Resolution, error) {
	if err := tm.openSession(s); err != nil {
		return Resolution{}, err
	}
	res, err := s.Engine.ContactBegin(c)
	if res.Kind != ResolutionDropped && res.Kind != ResolutionDebounced {
		tm.afterChange(s)
	}
	return res, err
}

// ContactEnd forwards an end-contact notification.
func (tm *TableManager) ContactEnd(s *TableSession, a, b BodyID) error {
	if err := tm.openSession(s); err != nil {
		return err
	}
	s.Engine.ContactEnd(a, b)
	return nil
}

// Reset re-racks the table on request.
func (tm *TableManager) Reset(s *TableSession) error {
	if err := tm.openSession(s); err != nil {
		return err
	}
	s.Engine.ResetTable()
	tm.Touch(s)
	tm.afterChange(s)
	return nil
}

// afterChange persists and announces what the engine recorded since the last call.
func (tm *TableManager) afterChange(s *TableSession) {
	events := s.Engine.Events()
	if len(events) == 0 {
		return
	}
	tm.RecordEvents(s, events)

	for _, ev := range events {
		switch ev.Type {
		case EventPocket:
			tm.PublishEvent(s.Token, PublishPocketed, map[string]interface{}{"ball": ev.BallID, "wall": ev.TargetID, "ratio": ev.Ratio})
		case EventReset:
			tm.PublishEvent(s.Token, PublishTableReset, map[string]interface{}{"state": s.Engine.Snapshot()})
		}
	}

	if err := tm.SaveToRedis(s); err != nil {
		log.Warn("[TABLE] failed to cache table", "token", s.Token, "error", err)
	}
}

// RecordShot stores a shot row. It is a no-op without a database.
func (tm *TableManager) RecordShot(s *TableSession, shot Shot, res ShotResult) {
	if tm == nil || tm.db == nil {
		return
	}

	shotData, err := json.Marshal(shot)
	if err != nil {
		log.Warn("[DB] failed to marshal shot", "token", s.Token, "error", err)
		return
	}

	_, err = tm.db.Exec(tm.db.Rebind(`INSERT INTO shots (table_token, shot_number, speed, direction_x, direction_z, world_rotation, shot_data) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		s.Token, res.Shot, res.Speed, res.Direction.X, res.Direction.Z, shot.WorldRotation, string(shotData))
	if err != nil {
		log.Warn("[DB] failed to record shot", "token", s.Token, "shot", res.Shot, "error", err)
	}
}

// RecordEvents stores the table's collision, pocket and reset events.
func (tm *TableManager) RecordEvents(s *TableSession, events []CollisionEvent) {
	if tm == nil || tm.db == nil || len(events) == 0 {
		return
	}

	tx, err := tm.db.Beginx()
	if err != nil {
		log.Warn("[DB] failed to begin event tx", "token", s.Token, "error", err)
		return
	}
	query := tm.db.Rebind(`INSERT INTO table_events (table_token, shot_number, event_type, ball_id, target_id, speed, ratio) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, ev := range events {
		if _, err := tx.Exec(query, s.Token, ev.Shot, ev.Type, nullString(string(ev.BallID)), nullString(string(ev.TargetID)), ev.Speed, ev.Ratio); err != nil {
			tx.Rollback()
			log.Warn("[DB] failed to record event", "token", s.Token, "type", ev.Type, "error", err)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		log.Warn("[DB] failed to commit events", "token", s.Token, "error", err)
	}
}

// ListEvents returns the persisted event history of a table, oldest first.
func (tm *TableManager) ListEvents(token string) ([]models.TableEvent, error) {
	if tm.db == nil {
		return []models.TableEvent{}, nil
	}
	events := []models.TableEvent{}
	err := tm.db.Select(&events, tm.db.Rebind(`SELECT id, table_token, shot_number, event_type, ball_id, target_id, speed, ratio, created_at FROM table_events WHERE table_token = ? ORDER BY id`), token)
	return events, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// StartMotionTicker advances every live table's animator until ctx is done.
// A table that comes to rest is cached and its state announced.
func (tm *TableManager) StartMotionTicker(ctx context.Context) {
	interval := time.Duration(tm.config.MotionTickMillis) * time.Millisecond
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("[TABLE] motion ticker started", "interval", interval)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Info("[TABLE] motion ticker stopping")
			return
		case now := <-ticker.C:
			tm.Tick(now.Sub(last).Seconds())
			last = now
		}
	}
}

// Tick advances every live table by dt time units.
func (tm *TableManager) Tick(dt float64) {
	tm.mu.RLock()
	sessions := make([]*TableSession, 0, len(tm.tables))
	for _, s := range tm.tables {
		sessions = append(sessions, s)
	}
	tm.mu.RUnlock()

	for _, s := range sessions {
		s.Engine.Advance(dt)

		s.mu.Lock()
		wasMoving := s.moving
		s.moving = !s.Engine.Settled()
		settledNow := wasMoving && !s.moving
		s.mu.Unlock()

		if settledNow {
			if err := tm.SaveToRedis(s); err != nil {
				log.Warn("[TABLE] failed to cache table", "token", s.Token, "error", err)
			}
			tm.PublishEvent(s.Token, PublishTableState, map[string]interface{}{"state": s.Engine.Snapshot()})
		}
	}
}
