package utils

import "github.com/gin-gonic/gin"

// JSONResponse is the envelope of the few machine-facing endpoints.
type JSONResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON envelope with the given HTTP status.
func Respond(ctx *gin.Context, status int, state string, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Status:  state,
		Message: message,
		Data:    data,
	})
}

// Success answers 200 with data.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, 200, "ok", "", data)
}

// Error answers status with a message and no data.
func Error(ctx *gin.Context, status int, message string) {
	Respond(ctx, status, "error", message, nil)
}
