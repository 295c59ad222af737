package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// RequireIDParams rejects requests whose named path params are not snowflake
// ids and stores the parsed ids under the same keys.
func RequireIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			raw := strings.TrimSpace(c.Param(name))
			id, err := snowflake.ParseString(raw)
			if err != nil || id == 0 {
				AbortWithError(c, newValidationError(name, "invalid_"+name, "invalid "+strings.ReplaceAll(name, "_", " ")))
				return
			}
			c.Set(name, id)
		}
		c.Next()
	}
}

func idParam(c *gin.Context, name string) snowflake.ID {
	if v, ok := c.Get(name); ok {
		if id, ok := v.(snowflake.ID); ok {
			return id
		}
	}
	id, _ := snowflake.ParseString(strings.TrimSpace(c.Param(name)))
	return id
}
