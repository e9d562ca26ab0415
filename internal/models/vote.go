package models

import "time"

// Vote - one row per (user, votable target). VotableType is "thread" or "comment".
type Vote struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	UserID      int       `gorm:"not null;uniqueIndex:idx_votes_user_target" json:"user_id"`
	VotableType string    `gorm:"size:16;not null;uniqueIndex:idx_votes_user_target;index:idx_votes_target" json:"votable_type"`
	VotableID   int       `gorm:"not null;uniqueIndex:idx_votes_user_target;index:idx_votes_target" json:"votable_id"`
	Value       int       `gorm:"not null;check:chk_votes_value,value = 1 OR value = -1" json:"value"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CastVoteRequest struct {
	Value int `json:"value" binding:"required,oneof=-1 1"`
}
