package models

import "time"

type Forum struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	UserID      *int      `json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID" json:"-"`
	Threads     []Thread  `gorm:"foreignKey:ForumID" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Thread struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	ForumID   int       `gorm:"index;not null" json:"forum_id"`
	Forum     Forum     `gorm:"foreignKey:ForumID" json:"-"`
	UserID    int       `gorm:"index;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Comment struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	ThreadID  int       `gorm:"index;not null" json:"thread_id"`
	Thread    Thread    `gorm:"foreignKey:ThreadID" json:"-"`
	UserID    int       `gorm:"index;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	ParentID  *int      `gorm:"index" json:"parent_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	ImageURL  string    `json:"attachment_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateForumRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description" binding:"required,min=10"`
	ImageURL    string `json:"image_url" binding:"omitempty,url"`
}

type UpdateForumRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=255"`
	Description *string `json:"description" binding:"omitempty,min=10"`
	ImageURL    *string `json:"image_url" binding:"omitempty,url"`
}

type CreateThreadRequest struct {
	Title string `json:"title" binding:"required,max=255"`
	Body  string `json:"body" binding:"required,min=10"`
}

type UpdateThreadRequest struct {
	Title *string `json:"title" binding:"omitempty,max=255"`
	Body  *string `json:"body" binding:"omitempty,min=10"`
}

type CreateCommentRequest struct {
	Body     string `json:"body" binding:"required,min=1"`
	ParentID *int   `json:"parent_id"`
}

type UpdateCommentRequest struct {
	Body string `json:"body" binding:"required,min=5"`
}
