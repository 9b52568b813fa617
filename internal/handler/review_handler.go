package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/mornview/reviewd/internal/pkg/response"
	"github.com/mornview/reviewd/internal/policy"
	"github.com/mornview/reviewd/internal/service"
)

type ReviewHandler struct {
	reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

type reviewRequest struct {
	Review string `json:"review"`
	Rate   int    `json:"rate"`
}

func (r reviewRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Review, validation.Required, validation.Length(5, 500)),
		validation.Field(&r.Rate, validation.Required, validation.Min(1), validation.Max(5)),
	)
}

func (h *ReviewHandler) Create(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if err := req.Validate(); err != nil {
		validationFailed(c, err)
		return
	}
	result, err := h.reviews.Create(c.Request.Context(), getUserID(c), req.Review, req.Rate)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, gin.H{
		"message": "review created successfully",
		"review":  result.Review,
		"user":    result.User,
	})
}

func (h *ReviewHandler) Get(c *gin.Context) {
	review, err := h.reviews.Get(c.Request.Context(), c.Param("reviewId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "review fetched", "review": review})
}

func (h *ReviewHandler) Update(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if err := req.Validate(); err != nil {
		validationFailed(c, err)
		return
	}
	// Existence first, then ownership: the policy never sees an unresolved review.
	review, err := h.reviews.Get(c.Request.Context(), c.Param("reviewId"))
	if err != nil {
		handleError(c, err)
		return
	}
	if err := policy.Authorize(getIdentity(c), c.Request.Method, policy.Resource{
		Kind:    policy.KindReview,
		OwnerID: review.UserID,
	}); err != nil {
		handleError(c, err)
		return
	}
	updated, err := h.reviews.Update(c.Request.Context(), review.ID, req.Review, req.Rate)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "review updated", "review": updated})
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	review, err := h.reviews.Get(c.Request.Context(), c.Param("reviewId"))
	if err != nil {
		handleError(c, err)
		return
	}
	if err := policy.Authorize(getIdentity(c), c.Request.Method, policy.Resource{
		Kind:    policy.KindReview,
		OwnerID: review.UserID,
	}); err != nil {
		handleError(c, err)
		return
	}
	deleted, err := h.reviews.Delete(c.Request.Context(), review.ID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "review deleted", "review": deleted})
}
