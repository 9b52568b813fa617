package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	userID, token := signupAndLogin(t, router, "alice@example.com", "Alice", "secret", false)
	require.NotEmpty(t, userID)
	require.NotEmpty(t, token)
}

func TestSignupDuplicateEmail(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	signupAndLogin(t, router, "alice@example.com", "Alice", "secret", false)
	resp := doJSON(t, router, http.MethodPut, "/api/v1/auth/signup", "", map[string]interface{}{
		"email": "alice@example.com", "name": "Alice Again", "password": "secret",
	})
	require.Equal(t, http.StatusConflict, resp.Code)
}

func TestSignupValidation(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	resp := doJSON(t, router, http.MethodPut, "/api/v1/auth/signup", "", map[string]interface{}{
		"email": "not-an-email", "name": "Alice", "password": "secret",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = doJSON(t, router, http.MethodPut, "/api/v1/auth/signup", "", map[string]interface{}{
		"email": "alice@example.com", "name": "Alice", "password": "1234",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	signupAndLogin(t, router, "alice@example.com", "Alice", "secret", false)
	resp := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	env := decodeEnvelope(t, resp)
	require.NotNil(t, env.Err)
	require.Equal(t, "wrong password", env.Err.Message)
}

func TestLoginUnknownEmail(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	resp := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "secret",
	})
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestGetUserRequiresAuth(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	userID, token := signupAndLogin(t, router, "alice@example.com", "Alice", "secret", false)

	resp := doJSON(t, router, http.MethodGet, "/api/v1/auth/user/"+userID, "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = doJSON(t, router, http.MethodGet, "/api/v1/auth/user/"+userID, token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotContains(t, resp.Body.String(), "password_hash")
}

func TestUpdateUserAuthorization(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	aliceID, aliceToken := signupAndLogin(t, router, "alice@example.com", "Alice", "secret", false)
	_, bobToken := signupAndLogin(t, router, "bob@example.com", "Bob", "secret", false)
	_, adminToken := signupAndLogin(t, router, "admin@example.com", "Admin", "secret", true)

	update := map[string]interface{}{"email": "alice@example.com", "name": "Alice Renamed", "password": "secret"}

	// standard user updating another user's profile
	resp := doJSON(t, router, http.MethodPatch, "/api/v1/auth/user/"+aliceID, bobToken, update)
	require.Equal(t, http.StatusForbidden, resp.Code)

	// self-update
	resp = doJSON(t, router, http.MethodPatch, "/api/v1/auth/user/"+aliceID, aliceToken, update)
	require.Equal(t, http.StatusOK, resp.Code)

	// admin update
	resp = doJSON(t, router, http.MethodPatch, "/api/v1/auth/user/"+aliceID, adminToken, update)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestUpdateMissingUserIs404(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	_, token := signupAndLogin(t, router, "alice@example.com", "Alice", "secret", false)
	resp := doJSON(t, router, http.MethodPatch, "/api/v1/auth/user/does-not-exist", token, map[string]interface{}{
		"email": "x@example.com", "name": "X", "password": "secret",
	})
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteUserRemovesReviews(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	aliceID, aliceToken := signupAndLogin(t, router, "alice@example.com", "Alice", "secret", false)

	resp := doJSON(t, router, http.MethodPut, "/api/v1/review/reviews", aliceToken, map[string]interface{}{
		"review": "Great product!", "rate": 5,
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	env := decodeEnvelope(t, resp)
	var review struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data["review"], &review))

	resp = doJSON(t, router, http.MethodDelete, "/api/v1/auth/user/"+aliceID, aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	// both the user and the review are gone; the dead token now 404s at the gate
	resp = doJSON(t, router, http.MethodGet, "/api/v1/review/reviews/"+review.ID, aliceToken, nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
}
