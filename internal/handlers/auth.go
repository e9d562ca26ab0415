package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/institute-hub/backend/internal/auth"
	"github.com/emilythestrangee/institute-hub/backend/internal/database"
	"github.com/emilythestrangee/institute-hub/backend/internal/models"
)

type AuthHandler struct {
	db     *gorm.DB
	tokens *auth.Tokens
	logger *slog.Logger
}

func NewAuthHandler(db *gorm.DB, tokens *auth.Tokens, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens, logger: logger}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if !bindJSON(c, &input) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	var count int64
	if err := h.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		respondError(c, err)
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
		return
	}

	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	role := input.Role
	if role == "" {
		role = models.RoleStudent
	}
	user := models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: hashed,
		DNI:      input.DNI,
		Phone:    input.Phone,
		Role:     role,
	}
	if err := h.db.Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
			return
		}
		respondError(c, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.Info("user registered", "event", "user_registered", "module", "auth", "user_id", user.ID, "role", user.Role)

	c.JSON(http.StatusCreated, models.AuthResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    user,
	})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if !bindJSON(c, &input) {
		return
	}

	var user models.User
	err := h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).Take(&user).Error
	if err != nil && !database.IsNotFound(err) {
		respondError(c, err)
		return
	}
	if err != nil || !auth.CheckPassword(user.Password, input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    user,
	})
}

// GetMe returns the current authenticated user
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.db.Take(&user, userID).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
