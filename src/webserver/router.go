package webserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hiveio/hive-ads/src/data"
	"github.com/hiveio/hive-ads/src/market"
)

// New builds the read-only projection API.
func New(db *gorm.DB) *gin.Engine {
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	adsH := NewAds(market.New(db), data.NewResolver(db))

	v1 := r.Group("/v1")
	{
		v1.GET("/ads/:account", adsH.ListUserAds)
		v1.GET("/market/:community", adsH.ListBidMarket)
	}

	return r
}
