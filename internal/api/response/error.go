package response

import "github.com/gin-gonic/gin"

// NewError builds the failure envelope.
func NewError(code int, message string) Response {
	return NewResponse(false, code, map[string]any{
		"message": message,
	})
}

// AbortWithError writes the failure envelope and stops the handler chain.
func AbortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, NewError(code, message))
}
