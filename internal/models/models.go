package models

import (
	"database/sql"
	"time"
)

// Table is a persisted table session
type Table struct {
	ID          int            `db:"id" json:"id"`
	Token       string         `db:"token" json:"token"`
	TableID     string         `db:"table_id" json:"table_id"`
	Profile     string         `db:"profile" json:"profile"`
	Width       float64        `db:"width" json:"width"`
	Length      float64        `db:"length" json:"length"`
	BallRadius  float64        `db:"ball_radius" json:"ball_radius"`
	TargetBalls int            `db:"target_balls" json:"target_balls"`
	Status      string         `db:"status" json:"status"`
	CloseReason sql.NullString `db:"close_reason" json:"close_reason,omitempty"`
	FinalState  sql.NullString `db:"final_state" json:"final_state,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	ClosedAt    sql.NullTime   `db:"closed_at" json:"closed_at,omitempty"`
}

// Shot is one cue strike on a table
type Shot struct {
	ID         int       `db:"id" json:"id"`
	TableToken string    `db:"table_token" json:"table_token"`
	ShotNumber int       `db:"shot_number" json:"shot_number"`
	Speed      float64   `db:"speed" json:"speed"`
	DirectionX float64   `db:"direction_x" json:"direction_x"`
	DirectionZ float64   `db:"direction_z" json:"direction_z"`
	Rotation   float64   `db:"world_rotation" json:"world_rotation"`
	ShotData   string    `db:"shot_data" json:"shot_data"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// TableEvent is a collision, pocket or reset that happened on a table
type TableEvent struct {
	ID         int            `db:"id" json:"id"`
	TableToken string         `db:"table_token" json:"table_token"`
	ShotNumber int            `db:"shot_number" json:"shot_number"`
	EventType  string         `db:"event_type" json:"event_type"`
	BallID     sql.NullString `db:"ball_id" json:"ball_id,omitempty"`
	TargetID   sql.NullString `db:"target_id" json:"target_id,omitempty"`
	Speed      float64        `db:"speed" json:"speed"`
	Ratio      float64        `db:"ratio" json:"ratio"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
