package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID is the header the request ID is read from and echoed on.
const HeaderRequestID = "X-Request-ID"

// requestIDKey is the gin context key the assigned ID is stored under.
const requestIDKey = "kelaskode.request_id"

// RequestIDMiddleware tags every request with an ID carried in the response
// envelope and the logs. A caller-supplied ID is kept only when it is a
// valid UUID; anything else is replaced so log correlation stays trustworthy.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestID returns the ID assigned by RequestIDMiddleware, or an empty
// string when the middleware did not run (direct handler tests).
func RequestID(c *gin.Context) string {
	v, _ := c.Get(requestIDKey)
	id, _ := v.(string)
	return id
}
