package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ADL-backend/internal/platform/apperr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service, secret []byte) {
	h := &Handler{svc: svc}
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.PUT("/password", RequireAuth(secret), h.ChangePassword)
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

type UserResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "missing required field(s)"))
		return
	}

	u, err := h.svc.Register(c.Request.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.BodyFrom(err))
		return
	}

	// password_hash はレスポンスに含めない
	c.JSON(http.StatusCreated, UserResponse{UserID: u.UserID, Username: u.Username, Role: u.Role})
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "missing required field(s)"))
		return
	}

	token, role, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.BodyFrom(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "role": role})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func (h *Handler) ChangePassword(c *gin.Context) {
	p, ok := PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apperr.Body(apperr.CodeUnauthenticated, "invalid token"))
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "missing required field(s)"))
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), p.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.BodyFrom(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
