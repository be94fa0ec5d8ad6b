package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps request body size. Oversized requests that declare
// their length are rejected up front; chunked ones hit the reader limit
// during binding instead.
func MaxBodyBytes(max int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.ContentLength > max {
			ctx.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"msg": "Request body too large",
			})
			return
		}

		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)

		ctx.Next()
	}
}
