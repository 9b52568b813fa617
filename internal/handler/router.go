package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mornview/reviewd/internal/middleware"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Reviews   *ReviewHandler
	Users     middleware.SubjectResolver
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.PUT("/auth/signup", deps.Auth.Signup)
	api.POST("/auth/login", deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret, deps.Users))

	authGroup.GET("/auth/user/:userId", deps.Auth.GetUser)
	authGroup.PATCH("/auth/user/:userId", deps.Auth.UpdateUser)
	authGroup.DELETE("/auth/user/:userId", deps.Auth.DeleteUser)

	authGroup.PUT("/review/reviews", deps.Reviews.Create)
	authGroup.GET("/review/reviews/:reviewId", deps.Reviews.Get)
	authGroup.PATCH("/review/reviews/:reviewId", deps.Reviews.Update)
	authGroup.DELETE("/review/reviews/:reviewId", deps.Reviews.Delete)
}
