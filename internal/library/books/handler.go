package books

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ADL-backend/internal/platform/apperr"
	"ADL-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service, secret []byte) {
	h := &Handler{svc: svc}

	// 一覧・検索は未認証でも見られる
	r.GET("/books", h.List)
	r.GET("/books/:book_id", h.Get)

	// 登録・削除は admin のみ
	r.POST("/books", auth.RequireAuth(secret), auth.RequireRole(auth.RoleAdmin), h.Create)
	r.DELETE("/books/:book_id", auth.RequireAuth(secret), auth.RequireRole(auth.RoleAdmin), h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	q := SearchQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	}
	res, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("book_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "book_id must be a number"))
		return
	}
	res, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "missing title, ISBN, category, or total copies"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.BodyFrom(err))
		return
	}
	c.Header("Location", "/books/"+strconv.FormatInt(res.BookID, 10))
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("book_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "book_id must be a number"))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "book " + strconv.FormatInt(id, 10) + " deleted successfully"})
}
