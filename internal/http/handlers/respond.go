package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every non-2xx response is JSON: validation failures carry an ordered
// errors list, everything else a single human-readable msg.

type FieldError struct {
	Msg   string `json:"msg"`
	Param string `json:"param,omitempty"`
}

func RespondMsg(ctx *gin.Context, status int, msg string) {
	ctx.JSON(status, gin.H{"msg": msg})
}

func RespondValidationErrors(ctx *gin.Context, errs []FieldError) {
	ctx.JSON(http.StatusBadRequest, gin.H{"errors": errs})
}

// RespondBadRequest reports credential and duplicate-registration
// failures in the validation list shape clients already parse. Other
// business 400s use RespondMsg directly.
func RespondBadRequest(ctx *gin.Context, msg string) {
	RespondValidationErrors(ctx, []FieldError{{Msg: msg}})
}

func RespondUnauthorized(ctx *gin.Context, msg string) {
	RespondMsg(ctx, http.StatusUnauthorized, msg)
}

func RespondNotFound(ctx *gin.Context, msg string) {
	RespondMsg(ctx, http.StatusNotFound, msg)
}

func RespondInternal(ctx *gin.Context) {
	RespondMsg(ctx, http.StatusInternalServerError, "Server error")
}

func RespondBadGateway(ctx *gin.Context, msg string) {
	RespondMsg(ctx, http.StatusBadGateway, msg)
}
