package httpapi

import "github.com/gin-gonic/gin"

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", h.Welcome)
	r.GET("/health", h.Health)
	r.GET("/price/:symbol", h.GetPrice)
	r.GET("/price/:symbol/last", h.GetLastKnownPrice)
	r.POST("/get_chart_image", h.GetChartImage)
	r.POST("/get_chart", h.GetChart)

	return r
}
