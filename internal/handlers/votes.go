package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/institute-hub/backend/internal/models"
	"github.com/emilythestrangee/institute-hub/backend/internal/voting"
)

type VoteHandler struct {
	ledger *voting.Ledger
}

func NewVoteHandler(ledger *voting.Ledger) *VoteHandler {
	return &VoteHandler{ledger: ledger}
}

type scoreResponse struct {
	VotableType string `json:"votable_type"`
	VotableID   int    `json:"votable_id"`
	Positive    int    `json:"positive_votes"`
	Negative    int    `json:"negative_votes"`
	Total       int    `json:"vote_score"`
	UserVote    *int   `json:"user_vote"`
}

func newScoreResponse(s voting.Score) scoreResponse {
	return scoreResponse{
		VotableType: s.Target.Kind.String(),
		VotableID:   s.Target.ID,
		Positive:    s.Positive,
		Negative:    s.Negative,
		Total:       s.Total,
		UserVote:    userVote(s),
	}
}

type castResponse struct {
	Result voting.Outcome `json:"result"`
	Score  scoreResponse  `json:"score"`
}

// VoteThread toggles the caller's vote on a thread.
func (h *VoteHandler) VoteThread(c *gin.Context) { h.cast(c, voting.TargetThread) }

// VoteComment toggles the caller's vote on a comment.
func (h *VoteHandler) VoteComment(c *gin.Context) { h.cast(c, voting.TargetComment) }

func (h *VoteHandler) GetThreadVotes(c *gin.Context)  { h.score(c, voting.TargetThread) }
func (h *VoteHandler) GetCommentVotes(c *gin.Context) { h.score(c, voting.TargetComment) }

func (h *VoteHandler) cast(c *gin.Context, kind voting.TargetKind) {
	voterID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.CastVoteRequest
	if !bindJSON(c, &input) {
		return
	}

	res, err := h.ledger.Cast(c.Request.Context(), voterID, voting.TargetRef{Kind: kind, ID: id}, input.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, castResponse{Result: res.Outcome, Score: newScoreResponse(res.Score)})
}

func (h *VoteHandler) score(c *gin.Context, kind voting.TargetKind) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s, err := h.ledger.Score(c.Request.Context(), voting.TargetRef{Kind: kind, ID: id}, viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newScoreResponse(s)})
}
