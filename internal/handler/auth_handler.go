package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/mornview/reviewd/internal/pkg/response"
	"github.com/mornview/reviewd/internal/policy"
	"github.com/mornview/reviewd/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

func (r signupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(5, 0)),
	)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if err := req.Validate(); err != nil {
		validationFailed(c, err)
		return
	}
	user, err := h.auth.Signup(c.Request.Context(), service.SignupInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, gin.H{"message": "user created", "user_id": user.ID})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if err := req.Validate(); err != nil {
		validationFailed(c, err)
		return
	}
	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"token": token, "user_id": user.ID})
}

func (h *AuthHandler) GetUser(c *gin.Context) {
	user, err := h.auth.GetUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "user fetched", "user": user})
}

type userUpdateRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

func (r userUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(5, 0)),
	)
}

func (h *AuthHandler) UpdateUser(c *gin.Context) {
	var req userUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if err := req.Validate(); err != nil {
		validationFailed(c, err)
		return
	}
	targetID := c.Param("userId")
	// Resolve the target before authorizing: a missing user is a 404, not a 403.
	if _, err := h.auth.GetUser(c.Request.Context(), targetID); err != nil {
		handleError(c, err)
		return
	}
	if err := policy.Authorize(getIdentity(c), c.Request.Method, policy.Resource{
		Kind:    policy.KindUserProfile,
		OwnerID: targetID,
	}); err != nil {
		handleError(c, err)
		return
	}
	user, err := h.auth.UpdateUser(c.Request.Context(), targetID, service.UserUpdateInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "user updated", "user": user})
}

func (h *AuthHandler) DeleteUser(c *gin.Context) {
	targetID := c.Param("userId")
	if _, err := h.auth.GetUser(c.Request.Context(), targetID); err != nil {
		handleError(c, err)
		return
	}
	if err := policy.Authorize(getIdentity(c), c.Request.Method, policy.Resource{
		Kind:    policy.KindUserProfile,
		OwnerID: targetID,
	}); err != nil {
		handleError(c, err)
		return
	}
	if err := h.auth.DeleteUser(c.Request.Context(), targetID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "user deleted"})
}
