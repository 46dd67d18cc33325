package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Search    *SearchHandler
	Listings  *ListingHandler
	Reference *ReferenceHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/search", deps.Search.Search)
	api.POST("/search/page", deps.Search.Page)

	api.GET("/projects/:id/documents", deps.Listings.ProjectDocuments)
	api.GET("/documents", deps.Listings.Documents)
	api.GET("/documents/:id", deps.Listings.Document)
	api.GET("/insights", deps.Listings.Insights)

	api.POST("/reference/lookup", deps.Reference.Lookup)
	api.GET("/reference/tables/:table_id/interpolate", deps.Reference.Interpolate)
	api.GET("/reference/options", deps.Reference.Options)
}
