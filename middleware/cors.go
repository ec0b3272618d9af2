package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the configured origins on the API. Paths under skipPrefix are
// left to PublicAssets, which opens them to every origin.
func CORS(origins []string, skipPrefix string) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Accept", RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 1 && origins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}

	handler := cors.New(corsCfg)
	return func(c *gin.Context) {
		if skipPrefix != "" && strings.HasPrefix(c.Request.URL.Path, skipPrefix) {
			c.Next()
			return
		}
		handler(c)
	}
}
