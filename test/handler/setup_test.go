package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/mornview/reviewd/internal/handler"
	"github.com/mornview/reviewd/internal/middleware"
	"github.com/mornview/reviewd/internal/repo"
	"github.com/mornview/reviewd/internal/service"
	"github.com/mornview/reviewd/test/testutil"
)

func setupRouter(t *testing.T) (http.Handler, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	userRepo := repo.NewUserRepo(db)
	reviewRepo := repo.NewReviewRepo(db)
	userCache := service.NewUserCache(128, time.Minute)

	jwtSecret := []byte("test-secret")
	authService := service.NewAuthService(db, userRepo, reviewRepo, userCache, jwtSecret, time.Hour)
	reviewService := service.NewReviewService(db, userRepo, reviewRepo, userCache)

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Reviews:   handler.NewReviewHandler(reviewService),
		Users:     authService,
		JWTSecret: jwtSecret,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	return engine, cleanup
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

type envelope struct {
	Data map[string]json.RawMessage `json:"data"`
	Err  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	return env
}

// signupAndLogin registers a user and returns its id plus a fresh token.
func signupAndLogin(t *testing.T, router http.Handler, email, name, pass string, isAdmin bool) (string, string) {
	t.Helper()
	resp := doJSON(t, router, http.MethodPut, "/api/v1/auth/signup", "", map[string]interface{}{
		"email": email, "name": name, "password": pass, "is_admin": isAdmin,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	env := decodeEnvelope(t, resp)
	var userID string
	require.NoError(t, json.Unmarshal(env.Data["user_id"], &userID))

	resp = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": pass,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env = decodeEnvelope(t, resp)
	var token string
	require.NoError(t, json.Unmarshal(env.Data["token"], &token))
	return userID, token
}
