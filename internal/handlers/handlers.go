package handlers

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/emilythestrangee/institute-hub/backend/internal/auth"
	"github.com/emilythestrangee/institute-hub/backend/internal/config"
	"github.com/emilythestrangee/institute-hub/backend/internal/tutoring"
	"github.com/emilythestrangee/institute-hub/backend/internal/voting"
)

// Deps are the collaborators the handlers are built from.
type Deps struct {
	DB       *gorm.DB
	Tokens   *auth.Tokens
	Ledger   *voting.Ledger
	Tutoring *tutoring.Service
	Logger   *slog.Logger
}

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Forum    *ForumHandler
	Thread   *ThreadHandler
	Comment  *CommentHandler
	Vote     *VoteHandler
	Tutoring *TutoringHandler
	Report   *ReportHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	setupValidator()
	logger := config.ResolveLogger(d.Logger)

	return &Handler{
		Auth:     NewAuthHandler(d.DB, d.Tokens, logger),
		Forum:    NewForumHandler(d.DB),
		Thread:   NewThreadHandler(d.DB, d.Ledger),
		Comment:  NewCommentHandler(d.DB, d.Ledger),
		Vote:     NewVoteHandler(d.Ledger),
		Tutoring: NewTutoringHandler(d.Tutoring),
		Report:   NewReportHandler(d.DB),
	}
}
