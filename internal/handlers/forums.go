package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/institute-hub/backend/internal/database"
	"github.com/emilythestrangee/institute-hub/backend/internal/middleware"
	"github.com/emilythestrangee/institute-hub/backend/internal/models"
	"github.com/emilythestrangee/institute-hub/backend/internal/voting"
)

type ForumHandler struct {
	db *gorm.DB
}

func NewForumHandler(db *gorm.DB) *ForumHandler {
	return &ForumHandler{db: db}
}

type forumResponse struct {
	ID           int                 `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	ImageURL     string              `json:"image_url"`
	UserID       *int                `json:"user_id"`
	User         *models.UserSummary `json:"user"`
	ThreadsCount int64               `json:"threads_count"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func newForumResponse(f models.Forum, threads int64) forumResponse {
	r := forumResponse{
		ID:           f.ID,
		Name:         f.Name,
		Description:  f.Description,
		ImageURL:     f.ImageURL,
		UserID:       f.UserID,
		ThreadsCount: threads,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
	if f.User != nil {
		r.User = f.User.Summary()
	}
	return r
}

// threadCounts returns the number of threads per forum id.
func (h *ForumHandler) threadCounts(ids []int) (map[int]int64, error) {
	out := make(map[int]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ForumID int
		N       int64
	}
	err := h.db.Model(&models.Thread{}).
		Select("forum_id, COUNT(*) AS n").
		Where("forum_id IN ?", ids).
		Group("forum_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ForumID] = r.N
	}
	return out, nil
}

// GetForums lists forums, newest first, with optional ?search on name or
// description.
func (h *ForumHandler) GetForums(c *gin.Context) {
	p := pagination(c)
	query := h.db.Model(&models.Forum{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondError(c, err)
		return
	}

	var forums []models.Forum
	err := query.Preload("User").
		Order("created_at desc").
		Offset(p.offset()).
		Limit(p.PerPage).
		Find(&forums).Error
	if err != nil {
		respondError(c, err)
		return
	}

	ids := make([]int, 0, len(forums))
	for _, f := range forums {
		ids = append(ids, f.ID)
	}
	counts, err := h.threadCounts(ids)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]forumResponse, 0, len(forums))
	for _, f := range forums {
		data = append(data, newForumResponse(f, counts[f.ID]))
	}
	c.JSON(http.StatusOK, paginated(data, p, total))
}

// GetForum returns a single forum by ID
func (h *ForumHandler) GetForum(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	forum, ok := h.load(c, id)
	if !ok {
		return
	}
	counts, err := h.threadCounts([]int{forum.ID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newForumResponse(forum, counts[forum.ID])})
}

func (h *ForumHandler) CreateForum(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var input models.CreateForumRequest
	if !bindJSON(c, &input) {
		return
	}

	forum := models.Forum{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		ImageURL:    input.ImageURL,
		UserID:      &userID,
	}
	if err := h.db.Create(&forum).Error; err != nil {
		if database.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "A forum with that name already exists"})
			return
		}
		respondError(c, err)
		return
	}

	h.db.Preload("User").First(&forum, forum.ID)
	c.JSON(http.StatusCreated, gin.H{"data": newForumResponse(forum, 0)})
}

// UpdateForum updates a forum (creator or admin only)
func (h *ForumHandler) UpdateForum(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.UpdateForumRequest
	if !bindJSON(c, &input) {
		return
	}

	forum, ok := h.load(c, id)
	if !ok {
		return
	}
	if !canManageForum(c, forum, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own forums"})
		return
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if len(updates) > 0 {
		if err := h.db.Model(&forum).Updates(updates).Error; err != nil {
			if database.IsUniqueViolation(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "A forum with that name already exists"})
				return
			}
			respondError(c, err)
			return
		}
	}

	forum, ok = h.load(c, id)
	if !ok {
		return
	}
	counts, err := h.threadCounts([]int{forum.ID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newForumResponse(forum, counts[forum.ID])})
}

// DeleteForum removes a forum with its threads, comments and their votes.
func (h *ForumHandler) DeleteForum(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	forum, ok := h.load(c, id)
	if !ok {
		return
	}
	if !canManageForum(c, forum, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own forums"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var threadIDs []int
		if err := tx.Model(&models.Thread{}).Where("forum_id = ?", forum.ID).Pluck("id", &threadIDs).Error; err != nil {
			return err
		}
		if err := deleteThreads(tx, threadIDs); err != nil {
			return err
		}
		return tx.Delete(&models.Forum{}, forum.ID).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ForumHandler) load(c *gin.Context, id int) (models.Forum, bool) {
	var forum models.Forum
	if err := h.db.Preload("User").First(&forum, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Forum not found"})
			return forum, false
		}
		respondError(c, err)
		return forum, false
	}
	return forum, true
}

func canManageForum(c *gin.Context, forum models.Forum, userID int) bool {
	if c.GetString(middleware.RoleKey) == models.RoleAdmin {
		return true
	}
	return forum.UserID != nil && *forum.UserID == userID
}

// deleteThreads removes the threads, their comments and every vote on either.
func deleteThreads(tx *gorm.DB, threadIDs []int) error {
	if len(threadIDs) == 0 {
		return nil
	}
	var commentIDs []int
	if err := tx.Model(&models.Comment{}).Where("thread_id IN ?", threadIDs).Pluck("id", &commentIDs).Error; err != nil {
		return err
	}
	if err := database.DeleteVotesFor(tx, voting.TargetComment, commentIDs); err != nil {
		return err
	}
	if err := tx.Where("thread_id IN ?", threadIDs).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := database.DeleteVotesFor(tx, voting.TargetThread, threadIDs); err != nil {
		return err
	}
	return tx.Where("id IN ?", threadIDs).Delete(&models.Thread{}).Error
}
