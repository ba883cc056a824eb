package lending

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ADL-backend/internal/platform/apperr"
	"ADL-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service, secret []byte) {
	h := &Handler{svc: svc}

	mw := auth.RequireAuth(secret)
	r.POST("/transactions/borrow", mw, h.Borrow)
	r.PUT("/transactions/return/:borrow_id", mw, h.Return)
	r.GET("/transactions/my-books", mw, h.MyBooks)
}

// ---------- handlers ----------

// POST /transactions/borrow
func (h *Handler) Borrow(c *gin.Context) {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apperr.Body(apperr.CodeUnauthenticated, "invalid token"))
		return
	}

	var req BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "invalid json or missing book_id"))
		return
	}

	res, err := h.svc.Borrow(c.Request.Context(), p.UserID, req)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.BodyFrom(err))
		return
	}

	c.Header("Location", "/transactions/"+res.BorrowULID)
	c.JSON(http.StatusCreated, res)
}

// PUT /transactions/return/:borrow_id
func (h *Handler) Return(c *gin.Context) {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apperr.Body(apperr.CodeUnauthenticated, "invalid token"))
		return
	}

	if err := h.svc.Return(c.Request.Context(), p.UserID, c.Param("borrow_id")); err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.BodyFrom(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "book returned successfully"})
}

// GET /transactions/my-books
func (h *Handler) MyBooks(c *gin.Context) {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apperr.Body(apperr.CodeUnauthenticated, "invalid token"))
		return
	}

	f := ListFilter{}
	if v := c.Query("only_open"); v == "true" || v == "1" {
		f.OnlyOpen = true
	}

	res, err := h.svc.ListMine(c.Request.Context(), p.UserID, f)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}
