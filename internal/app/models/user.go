package models

import (
	"time"

	"github.com/google/uuid"
)

// UserStats holds the cumulative contribution counters a user accrues.
// Counters only ever grow through normal operation; badges are derived from
// them on read and never trusted from storage.
type UserStats struct {
	LocationsAdded        int `json:"locations_added"`
	ContributionsApproved int `json:"contributions_approved"`
	ValidationsGiven      int `json:"validations_given"`
	RSLocationsAdded      int `json:"rs_locations_added"`
	PricingInfoAdded      int `json:"pricing_info_added"`
	CoordinateInfoAdded   int `json:"coordinate_info_added"`
	WebsiteInfoAdded      int `json:"website_info_added"`
}

// User is a registered account with its gamification state.
// Points never go negative; penalties clamp at zero at the store.
type User struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Nickname  string    `json:"nickname"`
	Email     string    `json:"email"`
	ScoutCode string    `json:"scout_code,omitempty"`

	Points int `json:"points"`
	Level  int `json:"level"`

	Stats UserStats `json:"stats"`

	CreatedAt time.Time `json:"created_at"`
}

// UserAuth carries the credential fields needed by the auth flow only.
type UserAuth struct {
	ID       uuid.UUID
	Email    string
	Nickname string
	Password string // bcrypt hash
}

// UserProfile is the read model returned to clients: the stored user plus
// the values recomputed from points and counters.
type UserProfile struct {
	User         User     `json:"user"`
	LevelName    string   `json:"level_name"`
	PointsToNext int      `json:"points_to_next"`
	Badges       []string `json:"badges"`
}

// LeaderboardEntry is one row of the points leaderboard.
type LeaderboardEntry struct {
	Rank     int       `json:"rank"`
	UserID   uuid.UUID `json:"user_id"`
	Nickname string    `json:"nickname"`
	Points   int       `json:"points"`
	Level    int       `json:"level"`
}
