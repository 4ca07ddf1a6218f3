package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todo/internal/middleware"
	"todo/internal/model"
	"todo/internal/validation"
)

type envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Data       json.RawMessage     `json:"data"`
	Pagination map[string]int      `json:"pagination"`
	Errors     map[string][]string `json:"errors"`
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	validation.Register()
	r := gin.New()
	r.Use(middleware.ErrorHandler(zap.NewNop(), false), middleware.Recovery())
	return r
}

// actingAs stands in for the auth middleware.
func actingAs(user *model.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserKey, user)
		c.Set(middleware.UserIDKey, user.ID)
		c.Set(middleware.TokenIDKey, uuid.MustParse("00000000-0000-0000-0000-0000000000aa"))
		c.Next()
	}
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}
