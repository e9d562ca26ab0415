package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/institute-hub/backend/internal/auth"
	"github.com/emilythestrangee/institute-hub/backend/internal/config"
	"github.com/emilythestrangee/institute-hub/backend/internal/database"
	"github.com/emilythestrangee/institute-hub/backend/internal/handlers"
	"github.com/emilythestrangee/institute-hub/backend/internal/middleware"
)

type Server struct {
	db      database.Service
	handler *handlers.Handler
	tokens  *auth.Tokens
	logger  *slog.Logger
}

// New wires the routes over already-built dependencies.
func New(db database.Service, handler *handlers.Handler, tokens *auth.Tokens, logger *slog.Logger) *Server {
	return &Server{db: db, handler: handler, tokens: tokens, logger: config.ResolveLogger(logger)}
}

// HTTPServer creates the HTTP server listening on port.
func (s *Server) HTTPServer(port string) *http.Server {
	if port == "" {
		port = "8080" // local dev fallback
	}
	return &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(s.logger))

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Public reads; a token, when sent, fills in user_vote
		public := api.Group("")
		public.Use(middleware.OptionalAuth(s.tokens))
		{
			public.GET("/forums", s.handler.Forum.GetForums)
			public.GET("/forums/:id", s.handler.Forum.GetForum)
			public.GET("/forums/:id/threads", s.handler.Thread.GetForumThreads)
			public.GET("/threads/:id", s.handler.Thread.GetThread)
			public.GET("/threads/:id/comments", s.handler.Comment.GetThreadComments)
			public.GET("/threads/:id/votes", s.handler.Vote.GetThreadVotes)
			public.GET("/comments/:id/votes", s.handler.Vote.GetCommentVotes)
		}

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(s.tokens))
		{
			protected.GET("/me", s.handler.Auth.GetMe)

			protected.POST("/forums", s.handler.Forum.CreateForum)
			protected.PUT("/forums/:id", s.handler.Forum.UpdateForum)
			protected.DELETE("/forums/:id", s.handler.Forum.DeleteForum)

			protected.POST("/forums/:id/threads", s.handler.Thread.CreateThread)
			protected.PUT("/threads/:id", s.handler.Thread.UpdateThread)
			protected.DELETE("/threads/:id", s.handler.Thread.DeleteThread)
			protected.GET("/users/:id/threads", s.handler.Thread.GetUserThreads)

			protected.POST("/threads/:id/comments", s.handler.Comment.CreateComment)
			protected.PUT("/comments/:id", s.handler.Comment.UpdateComment)
			protected.DELETE("/comments/:id", s.handler.Comment.DeleteComment)
			protected.GET("/users/:id/comments", s.handler.Comment.GetUserComments)

			protected.POST("/threads/:id/votes", s.handler.Vote.VoteThread)
			protected.POST("/comments/:id/votes", s.handler.Vote.VoteComment)

			tutoring := protected.Group("/tutoring")
			{
				// Teacher routes
				tutoring.GET("/requests", s.handler.Tutoring.GetTeacherRequests)
				tutoring.POST("/requests/:id/accept", s.handler.Tutoring.AcceptRequest)
				tutoring.POST("/requests/:id/reject", s.handler.Tutoring.RejectRequest)
				tutoring.POST("/requests/:id/mark-attendance", s.handler.Tutoring.MarkAttendance)
				tutoring.GET("/history", s.handler.Tutoring.GetTeacherHistory)
				tutoring.POST("/availabilities", s.handler.Tutoring.CreateAvailability)
				tutoring.DELETE("/availabilities/:id", s.handler.Tutoring.DeleteAvailability)

				// Student routes
				tutoring.POST("/requests", s.handler.Tutoring.CreateRequest)
				tutoring.GET("/my-requests", s.handler.Tutoring.GetStudentRequests)
				tutoring.GET("/teachers", s.handler.Tutoring.GetAvailableTeachers)

				// Shared
				tutoring.GET("/availabilities/:teacherId", s.handler.Tutoring.GetTeacherAvailability)
			}

			reports := protected.Group("/reports")
			{
				reports.POST("/enrolled-courses", s.handler.Report.EnrolledCourses)
				reports.POST("/single-course-grades", s.handler.Report.SingleCourseGrades)
				reports.POST("/academic-summary", s.handler.Report.AcademicSummary)
			}
		}
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	stats := s.db.Health()
	code := http.StatusOK
	if stats["status"] != "up" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, stats)
}
