package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiveio/hive-ads/src/data"
	"github.com/hiveio/hive-ads/src/market"
	"github.com/hiveio/hive-ads/src/nativead"
)

type Ads struct {
	market   market.Market
	resolver data.Resolver
}

func NewAds(m market.Market, r data.Resolver) Ads {
	return Ads{market: m, resolver: r}
}

// ListUserAds handles GET /v1/ads/:account?community=<name>.
func (a Ads) ListUserAds(c *gin.Context) {
	accountID, err := a.resolver.AccountID(c.Param("account"))
	if err != nil {
		respondLookup(c, err)
		return
	}

	var communityID *uint64
	if name := c.Query("community"); name != "" {
		id, err := a.resolver.CommunityID(name)
		if err != nil {
			respondLookup(c, err)
			return
		}
		communityID = &id
	}

	ads, err := a.market.ListUserAds(accountID, communityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ads)
}

// ListBidMarket handles GET /v1/market/:community.
func (a Ads) ListBidMarket(c *gin.Context) {
	communityID, err := a.resolver.CommunityID(c.Param("community"))
	if err != nil {
		respondLookup(c, err)
		return
	}

	bids, err := a.market.ListBidMarket(communityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bids)
}

func respondLookup(c *gin.Context, err error) {
	var le *nativead.LookupError
	if errors.As(err, &le) {
		c.JSON(http.StatusNotFound, gin.H{"err": le.Msg})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
}
