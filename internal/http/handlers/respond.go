package handlers

import (
	"net/http"

	"userhub/internal/domain/user"

	"github.com/gin-gonic/gin"
)

// Envelope is the fixed response shape every endpoint answers with. The body
// `code` mirrors the transport status; clients built against the old backend
// read the body field only.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Total   *int64 `json:"total,omitempty"`
	Pages   *int64 `json:"pages,omitempty"`
	Current *int   `json:"current,omitempty"`
	Size    *int   `json:"size,omitempty"`
}

func RespondOK(ctx *gin.Context, message string, data any) {
	ctx.JSON(http.StatusOK, Envelope{
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	})
}

func RespondPage(ctx *gin.Context, message string, page user.Page) {
	ctx.JSON(http.StatusOK, Envelope{
		Code:    http.StatusOK,
		Message: message,
		Data:    page.Items,
		Total:   &page.Total,
		Pages:   &page.Pages,
		Current: &page.Current,
		Size:    &page.Size,
	})
}

func RespondError(ctx *gin.Context, code int, message string, details any) {
	ctx.JSON(code, Envelope{
		Code:    code,
		Message: message,
		Data:    details,
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details any) {
	RespondError(ctx, http.StatusBadRequest, message, details)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, message, nil)
}
