package errors

import (
	"github.com/gin-gonic/gin"
)

// WriteJSON renders err using the standard envelope and aborts the chain.
func WriteJSON(c *gin.Context, err error) {
	apiErr := FromError(err)
	if apiErr == nil {
		return
	}
	c.AbortWithStatusJSON(apiErr.HTTPStatus, apiErr.Envelope())
}
