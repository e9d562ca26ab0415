package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/institute-hub/backend/internal/apperr"
)

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		err     error
		code    int
		message string
	}{
		{apperr.New(apperr.NotFound, "thread not found"), http.StatusNotFound, "thread not found"},
		{apperr.New(apperr.InvalidArgument, "bad"), http.StatusBadRequest, "bad"},
		{apperr.New(apperr.PermissionDenied, "nope"), http.StatusForbidden, "nope"},
		{apperr.New(apperr.InvalidState, "cannot accept"), http.StatusConflict, "cannot accept"},
		{apperr.New(apperr.Conflict, "exists"), http.StatusConflict, "exists"},
		{apperr.New(apperr.Unauthenticated, "who"), http.StatusUnauthorized, "who"},
		{errors.New("dial tcp: refused"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			c, w := testContext("/")
			respondError(c, tt.err)
			assert.Equal(t, tt.code, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["error"])
		})
	}
}

func TestRespondError_InternalIsRecorded(t *testing.T) {
	c, w := testContext("/")
	respondError(c, errors.New("dial tcp: refused"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Len(t, c.Errors, 1)
	assert.NotContains(t, w.Body.String(), "dial tcp")
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query   string
		page    int
		perPage int
	}{
		{"", 1, 15},
		{"?page=3&per_page=20", 3, 20},
		{"?page=0&per_page=-1", 1, 15},
		{"?page=x", 1, 15},
		{"?per_page=500", 1, 100},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := testContext("/forums" + tt.query)
			p := pagination(c)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.perPage, p.PerPage)
		})
	}
	assert.Equal(t, 40, page{Page: 3, PerPage: 20}.offset())
}

func TestPaginatedMeta(t *testing.T) {
	body := paginated([]int{}, page{Page: 1, PerPage: 15}, 0)
	assert.Equal(t, 1, body["meta"].(gin.H)["last_page"])

	body = paginated([]int{1}, page{Page: 2, PerPage: 15}, 31)
	meta := body["meta"].(gin.H)
	assert.Equal(t, 3, meta["last_page"])
	assert.EqualValues(t, 31, meta["total"])
}

func TestBindJSON_ValidationFields(t *testing.T) {
	setupValidator()
	type input struct {
		Title string `json:"title" binding:"notblank"`
		Value int    `json:"value" binding:"required,oneof=-1 1"`
	}

	c, w := testContext("/")
	c.Request = httptest.NewRequest(http.MethodPost, "/", jsonBody(`{"title":"   ","value":3}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var in input
	assert.False(t, bindJSON(c, &in))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "title cannot be blank", body.Fields["title"])
	assert.Contains(t, body.Fields, "value")
}

func TestBindJSON_Malformed(t *testing.T) {
	c, w := testContext("/")
	c.Request = httptest.NewRequest(http.MethodPost, "/", jsonBody(`{"title":`))
	c.Request.Header.Set("Content-Type", "application/json")

	var in struct {
		Title string `json:"title"`
	}
	assert.False(t, bindJSON(c, &in))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "malformed JSON body")
}

func jsonBody(s string) *strings.Reader { return strings.NewReader(s) }
