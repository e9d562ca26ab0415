package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/institute-hub/backend/internal/database"
	"github.com/emilythestrangee/institute-hub/backend/internal/models"
	"github.com/emilythestrangee/institute-hub/backend/internal/voting"
)

type CommentHandler struct {
	db     *gorm.DB
	ledger *voting.Ledger
}

func NewCommentHandler(db *gorm.DB, ledger *voting.Ledger) *CommentHandler {
	return &CommentHandler{db: db, ledger: ledger}
}

type commentResponse struct {
	ID            int                 `json:"id"`
	Body          string              `json:"body"`
	UserID        int                 `json:"user_id"`
	ThreadID      int                 `json:"thread_id"`
	ParentID      *int                `json:"parent_id"`
	AttachmentURL string              `json:"attachment_url,omitempty"`
	User          *models.UserSummary `json:"user"`
	VotesCount    int                 `json:"votes_count"`
	VoteScore     int                 `json:"vote_score"`
	UserVote      *int                `json:"user_vote"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func newCommentResponse(cm models.Comment, score voting.Score) commentResponse {
	return commentResponse{
		ID:            cm.ID,
		Body:          cm.Body,
		UserID:        cm.UserID,
		ThreadID:      cm.ThreadID,
		ParentID:      cm.ParentID,
		AttachmentURL: cm.ImageURL,
		User:          cm.User.Summary(),
		VotesCount:    score.Positive + score.Negative,
		VoteScore:     score.Total,
		UserVote:      userVote(score),
		CreatedAt:     cm.CreatedAt,
		UpdatedAt:     cm.UpdatedAt,
	}
}

func (h *CommentHandler) present(c *gin.Context, comments []models.Comment) ([]commentResponse, error) {
	ids := make([]int, 0, len(comments))
	for _, cm := range comments {
		ids = append(ids, cm.ID)
	}
	scores, err := h.ledger.Scores(c.Request.Context(), voting.TargetComment, ids, viewer(c))
	if err != nil {
		return nil, err
	}
	out := make([]commentResponse, 0, len(comments))
	for _, cm := range comments {
		out = append(out, newCommentResponse(cm, scores[cm.ID]))
	}
	return out, nil
}

// GetThreadComments returns every comment of a thread, oldest first. Clients
// build the reply tree from parent_id.
func (h *CommentHandler) GetThreadComments(c *gin.Context) {
	threadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var count int64
	if err := h.db.Model(&models.Thread{}).Where("id = ?", threadID).Count(&count).Error; err != nil {
		respondError(c, err)
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Thread not found"})
		return
	}

	var comments []models.Comment
	err := h.db.Where("thread_id = ?", threadID).
		Preload("User").
		Order("created_at asc").
		Order("id asc").
		Find(&comments).Error
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := h.present(c, comments)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// GetUserComments lists a user's comments, newest first.
func (h *CommentHandler) GetUserComments(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}
	p := pagination(c)
	query := h.db.Model(&models.Comment{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondError(c, err)
		return
	}
	var comments []models.Comment
	err := query.Preload("User").
		Order("created_at desc").
		Offset(p.offset()).
		Limit(p.PerPage).
		Find(&comments).Error
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := h.present(c, comments)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(data, p, total))
}

// CreateComment creates a new comment on a thread. A parent must belong to
// the same thread.
func (h *CommentHandler) CreateComment(c *gin.Context) {
	authorID, ok := requireUser(c)
	if !ok {
		return
	}
	threadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.CreateCommentRequest
	if !bindJSON(c, &input) {
		return
	}

	var thread models.Thread
	if err := h.db.First(&thread, threadID).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Thread not found"})
			return
		}
		respondError(c, err)
		return
	}

	if input.ParentID != nil {
		var parent models.Comment
		err := h.db.Where("id = ? AND thread_id = ?", *input.ParentID, thread.ID).Take(&parent).Error
		if database.IsNotFound(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "parent_id must be a comment of the same thread"})
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
	}

	comment := models.Comment{
		ThreadID: thread.ID,
		UserID:   authorID,
		ParentID: input.ParentID,
		Body:     input.Body,
	}
	if err := h.db.Create(&comment).Error; err != nil {
		respondError(c, err)
		return
	}

	h.db.Preload("User").First(&comment, comment.ID)
	c.JSON(http.StatusCreated, gin.H{"data": newCommentResponse(comment, voting.Score{})})
}

// UpdateComment updates a comment (owner only)
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	authorID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.UpdateCommentRequest
	if !bindJSON(c, &input) {
		return
	}

	comment, ok := h.load(c, id)
	if !ok {
		return
	}
	if comment.UserID != authorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own comments"})
		return
	}

	if err := h.db.Model(&comment).Update("body", input.Body).Error; err != nil {
		respondError(c, err)
		return
	}
	comment, ok = h.load(c, id)
	if !ok {
		return
	}

	data, err := h.present(c, []models.Comment{comment})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data[0]})
}

// DeleteComment deletes a comment, its replies and their votes (owner only)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	authorID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	comment, ok := h.load(c, id)
	if !ok {
		return
	}
	if comment.UserID != authorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own comments"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		ids, err := commentSubtree(tx, comment.ID)
		if err != nil {
			return err
		}
		if err := database.DeleteVotesFor(tx, voting.TargetComment, ids); err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CommentHandler) load(c *gin.Context, id int) (models.Comment, bool) {
	var comment models.Comment
	if err := h.db.Preload("User").First(&comment, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
			return comment, false
		}
		respondError(c, err)
		return comment, false
	}
	return comment, true
}

// commentSubtree returns rootID and the ids of all its nested replies.
func commentSubtree(tx *gorm.DB, rootID int) ([]int, error) {
	all := []int{rootID}
	frontier := []int{rootID}
	for len(frontier) > 0 {
		var children []int
		if err := tx.Model(&models.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		all = append(all, children...)
		frontier = children
	}
	return all, nil
}
