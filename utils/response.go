package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blogpub/validators"
)

// Respond writes body as JSON with success and, when set, message merged in.
func Respond(ctx *gin.Context, status int, success bool, message string, body gin.H) {
	payload := gin.H{"success": success}
	if message != "" {
		payload["message"] = message
	}
	for k, v := range body {
		payload[k] = v
	}
	ctx.JSON(status, payload)
}

// Success returns a standard success response.
func Success(ctx *gin.Context, status int, message string, body gin.H) {
	Respond(ctx, status, true, message, body)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, message string) {
	Respond(ctx, status, false, message, nil)
}

// ValidationError answers 400 with the list of failed field rules.
func ValidationError(ctx *gin.Context, errs []validators.FieldError) {
	Respond(ctx, http.StatusBadRequest, false, "validation failed", gin.H{"errors": errs})
}

// ServerError logs err and answers 500. The underlying error text is only
// echoed to clients in debug mode.
func ServerError(ctx *gin.Context, message string, err error) {
	Logger.Error(message,
		zap.Error(err),
		zap.String("request_id", ctx.GetString("request_id")),
		zap.String("method", ctx.Request.Method),
		zap.String("path", ctx.Request.URL.Path),
	)
	detail := "internal server error"
	if gin.Mode() == gin.DebugMode && err != nil {
		detail = err.Error()
	}
	Respond(ctx, http.StatusInternalServerError, false, message, gin.H{"error": detail})
}
