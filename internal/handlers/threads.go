package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/institute-hub/backend/internal/database"
	"github.com/emilythestrangee/institute-hub/backend/internal/models"
	"github.com/emilythestrangee/institute-hub/backend/internal/voting"
)

type ThreadHandler struct {
	db     *gorm.DB
	ledger *voting.Ledger
}

func NewThreadHandler(db *gorm.DB, ledger *voting.Ledger) *ThreadHandler {
	return &ThreadHandler{db: db, ledger: ledger}
}

type forumRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type threadResponse struct {
	ID            int                 `json:"id"`
	Title         string              `json:"title"`
	Body          string              `json:"body"`
	UserID        int                 `json:"user_id"`
	ForumID       int                 `json:"forum_id"`
	User          *models.UserSummary `json:"user"`
	Forum         *forumRef           `json:"forum"`
	CommentsCount int64               `json:"comments_count"`
	VotesCount    int                 `json:"votes_count"`
	VoteScore     int                 `json:"vote_score"`
	UserVote      *int                `json:"user_vote"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func newThreadResponse(t models.Thread, comments int64, score voting.Score) threadResponse {
	r := threadResponse{
		ID:            t.ID,
		Title:         t.Title,
		Body:          t.Body,
		UserID:        t.UserID,
		ForumID:       t.ForumID,
		User:          t.User.Summary(),
		CommentsCount: comments,
		VotesCount:    score.Positive + score.Negative,
		VoteScore:     score.Total,
		UserVote:      userVote(score),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	if t.Forum.ID != 0 {
		r.Forum = &forumRef{ID: t.Forum.ID, Name: t.Forum.Name}
	}
	return r
}

func userVote(s voting.Score) *int {
	if s.UserVote == nil {
		return nil
	}
	v := int(*s.UserVote)
	return &v
}

// present decorates threads with comment counts and live vote scores.
func (h *ThreadHandler) present(c *gin.Context, threads []models.Thread) ([]threadResponse, error) {
	ids := make([]int, 0, len(threads))
	for _, t := range threads {
		ids = append(ids, t.ID)
	}
	scores, err := h.ledger.Scores(c.Request.Context(), voting.TargetThread, ids, viewer(c))
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int64, len(ids))
	if len(ids) > 0 {
		var rows []struct {
			ThreadID int
			N        int64
		}
		err := h.db.Model(&models.Comment{}).
			Select("thread_id, COUNT(*) AS n").
			Where("thread_id IN ?", ids).
			Group("thread_id").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			counts[r.ThreadID] = r.N
		}
	}

	out := make([]threadResponse, 0, len(threads))
	for _, t := range threads {
		out = append(out, newThreadResponse(t, counts[t.ID], scores[t.ID]))
	}
	return out, nil
}

const threadScoreOrder = "(SELECT COALESCE(SUM(v.value), 0) FROM votes v " +
	"WHERE v.votable_type = 'thread' AND v.votable_id = threads.id) DESC"

// GetForumThreads lists a forum's threads. ?sort=votes orders by live score,
// otherwise newest first.
func (h *ThreadHandler) GetForumThreads(c *gin.Context) {
	forumID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var forum models.Forum
	if err := h.db.First(&forum, forumID).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Forum not found"})
			return
		}
		respondError(c, err)
		return
	}

	query := h.db.Model(&models.Thread{}).Where("forum_id = ?", forumID).Session(&gorm.Session{})
	ordered := query.Order("created_at desc")
	if c.Query("sort") == "votes" {
		ordered = query.Order(threadScoreOrder).Order("created_at desc")
	}
	h.list(c, query, ordered)
}

// GetUserThreads lists a user's threads, optionally within ?forum_id.
func (h *ThreadHandler) GetUserThreads(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}
	query := h.db.Model(&models.Thread{}).Where("user_id = ?", userID)
	if raw := c.Query("forum_id"); raw != "" {
		forumID, err := strconv.Atoi(raw)
		if err != nil || forumID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid forum_id"})
			return
		}
		query = query.Where("forum_id = ?", forumID)
	}
	query = query.Session(&gorm.Session{})
	h.list(c, query, query.Order("created_at desc"))
}

func (h *ThreadHandler) list(c *gin.Context, counted, ordered *gorm.DB) {
	p := pagination(c)
	var total int64
	if err := counted.Count(&total).Error; err != nil {
		respondError(c, err)
		return
	}

	var threads []models.Thread
	err := ordered.Preload("User").Preload("Forum").
		Offset(p.offset()).
		Limit(p.PerPage).
		Find(&threads).Error
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := h.present(c, threads)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(data, p, total))
}

// GetThread returns a single thread by ID
func (h *ThreadHandler) GetThread(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	thread, ok := h.load(c, id)
	if !ok {
		return
	}
	data, err := h.present(c, []models.Thread{thread})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data[0]})
}

// CreateThread opens a thread in the forum (PROTECTED - requires authentication)
func (h *ThreadHandler) CreateThread(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	forumID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.CreateThreadRequest
	if !bindJSON(c, &input) {
		return
	}

	var forum models.Forum
	if err := h.db.First(&forum, forumID).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Forum not found"})
			return
		}
		respondError(c, err)
		return
	}

	thread := models.Thread{
		ForumID: forum.ID,
		UserID:  userID,
		Title:   strings.TrimSpace(input.Title),
		Body:    input.Body,
	}
	if err := h.db.Create(&thread).Error; err != nil {
		respondError(c, err)
		return
	}

	thread, ok = h.load(c, thread.ID)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": newThreadResponse(thread, 0, voting.Score{})})
}

// UpdateThread updates an existing thread (PROTECTED - requires ownership)
func (h *ThreadHandler) UpdateThread(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.UpdateThreadRequest
	if !bindJSON(c, &input) {
		return
	}

	thread, ok := h.load(c, id)
	if !ok {
		return
	}
	if thread.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own threads"})
		return
	}

	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Body != nil {
		updates["body"] = *input.Body
	}
	if len(updates) > 0 {
		if err := h.db.Model(&thread).Updates(updates).Error; err != nil {
			respondError(c, err)
			return
		}
	}

	thread, ok = h.load(c, id)
	if !ok {
		return
	}
	data, err := h.present(c, []models.Thread{thread})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data[0]})
}

// DeleteThread deletes a thread, its comments and all their votes (owner only)
func (h *ThreadHandler) DeleteThread(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	thread, ok := h.load(c, id)
	if !ok {
		return
	}
	if thread.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own threads"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		return deleteThreads(tx, []int{thread.ID})
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ThreadHandler) load(c *gin.Context, id int) (models.Thread, bool) {
	var thread models.Thread
	if err := h.db.Preload("User").Preload("Forum").First(&thread, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Thread not found"})
			return thread, false
		}
		respondError(c, err)
		return thread, false
	}
	return thread, true
}
