package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由. ready 通常是 health.Checker.
func SetupRouter(mode string, ready http.Handler, tables *TableHandler) *gin.Engine {
	gin.SetMode(mode)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", gin.WrapH(ready))

	v1 := r.Group("/api/v1")
	{
		t := v1.Group("/tables")
		{
			t.GET("", tables.List)
			t.GET("/:id", tables.Get)
			t.GET("/:id/rounds", tables.Rounds)
		}
	}

	return r
}
