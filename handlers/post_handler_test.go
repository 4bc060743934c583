package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// These tests cover the validation paths that reject a request before
// any storage access, so the handler runs with no store attached.

func postRequest(t *testing.T, handler gin.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/posts/:id/vote", handler)
	r.POST("/posts", handler)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVoteValidation(t *testing.T) {
	h := &PostHandler{}

	t.Run("direction outside plus and minus one", func(t *testing.T) {
		for _, body := range []string{`{"vote":0}`, `{"vote":2}`, `{"vote":-5}`, `{}`} {
			w := postRequest(t, h.Vote, "/posts/abc/vote", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
			assert.Contains(t, w.Body.String(), "Invalid vote value")
		}
	})

	t.Run("non-numeric direction", func(t *testing.T) {
		w := postRequest(t, h.Vote, "/posts/abc/vote", `{"vote":"up"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("valid direction without identity is unauthorized", func(t *testing.T) {
		// No auth middleware ran, so there is no userId in context.
		w := postRequest(t, h.Vote, "/posts/abc/vote", `{"vote":1}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCreatePostValidation(t *testing.T) {
	h := &PostHandler{}

	t.Run("missing fields", func(t *testing.T) {
		for _, body := range []string{
			`{}`,
			`{"title":"t"}`,
			`{"title":"t","content":"c"}`,
			`{"content":"c","communityId":"x"}`,
		} {
			w := postRequest(t, h.Create, "/posts", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
		}
	})

	t.Run("title over 300 characters", func(t *testing.T) {
		long := strings.Repeat("a", 301)
		w := postRequest(t, h.Create, "/posts", `{"title":"`+long+`","content":"c","communityId":"x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
