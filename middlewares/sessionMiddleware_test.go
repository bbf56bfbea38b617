package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func sessionTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SessionMiddleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestSessionMiddlewareAllowsAnonymousRequests(t *testing.T) {
	router := sessionTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("anonymous request status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestSessionMiddlewareRejectsMalformedToken(t *testing.T) {
	router := sessionTestRouter()

	for _, token := range []string{"not-a-jwt", "a.b.c", "0b8c9d7e-raw-uuid"} {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("token", token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("token %q status = %d, want %d", token, w.Code, http.StatusUnauthorized)
		}
	}
}
