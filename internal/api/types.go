package api

import (
	"strings"

	"radiocalico/internal/store"
)

const (
	// DefaultTopLimit is used when the limit query is absent or invalid.
	DefaultTopLimit = 10
	// MaxTopLimit caps the top-rated list length.
	MaxTopLimit = 100
)

// Caller describes the HTTP client behind a request.
type Caller struct {
	IPAddress string
	UserAgent string
}

// RegisterUserRequest is the body of POST /api/users/register.
type RegisterUserRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (r *RegisterUserRequest) normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
}

// SubmitRatingRequest is the body of POST /api/ratings.
type SubmitRatingRequest struct {
	UserID string  `json:"user_id" validate:"required"`
	Artist string  `json:"artist" validate:"required"`
	Title  string  `json:"title" validate:"required"`
	Album  *string `json:"album,omitempty"`
	Rating string  `json:"rating" validate:"required,oneof=up down"`
}

func (r *SubmitRatingRequest) normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.Artist = strings.TrimSpace(r.Artist)
	r.Title = strings.TrimSpace(r.Title)
	r.Rating = strings.TrimSpace(r.Rating)
	if r.Album != nil {
		album := strings.TrimSpace(*r.Album)
		if album == "" {
			r.Album = nil
		} else {
			r.Album = &album
		}
	}
}

// RegisterUserResponse is returned by POST /api/users/register.
type RegisterUserResponse struct {
	Success bool       `json:"success"`
	User    store.User `json:"user"`
}

// SongRating is a song aggregate with the requesting listener's vote.
type SongRating struct {
	store.Summary
	UserVote *string `json:"user_vote"`
}

// AdminReport is the payload of GET /api/admin/data.
type AdminReport struct {
	Songs       []store.AdminSong    `json:"songs"`
	Users       []store.UserActivity `json:"users"`
	RecentVotes []store.RecentVote   `json:"recent_votes"`
	Stats       store.Stats          `json:"stats"`
}

// DataResponse wraps successful payloads as {"success": true, "data": ...}.
type DataResponse[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

// MessageResponse wraps successful actions as {"success": true, "message": ...}.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Message   string `json:"message,omitempty"`
}

// DatabaseInfo is returned by GET /api/test.
type DatabaseInfo struct {
	DatabaseType string `json:"database_type"`
	Version      string `json:"version"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
