package market

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hiveio/hive-ads/src/types"
)

// Market serves the read-only ad projections. Nothing here mutates
// state.
type Market struct{ db *gorm.DB }

func New(db *gorm.DB) Market { return Market{db: db} }

// UserAd is one entry of the per-account ad listing. Lifecycle fields
// are populated only when the listing was scoped to a community.
type UserAd struct {
	Title        string `json:"title"`
	Body         string `json:"body"`
	AdType       string `json:"ad_type"`
	AdProperties string `json:"ad_properties"`

	TimeUnits *int32           `json:"time_units,omitempty"`
	BidAmount *decimal.Decimal `json:"bid_amount,omitempty"`
	BidToken  *string          `json:"bid_token,omitempty"`
	StartTime *time.Time       `json:"start_time,omitempty"`
	Status    *string          `json:"status,omitempty"`
	ModNotes  *string          `json:"mod_notes,omitempty"`
}

// ListUserAds returns every ad post the account owns. With a
// community it joins the per-community lifecycle state; without one
// it returns the post/ad metadata alone.
func (m Market) ListUserAds(accountID uint64, communityID *uint64) ([]UserAd, error) {
	if communityID == nil {
		var rows []struct {
			Title      string
			Body       string
			Type       string
			Properties string
		}
		err := m.db.Table("hive_ads").
			Select("hive_posts.title, hive_posts.body, hive_ads.type, hive_ads.properties").
			Joins("JOIN hive_posts ON hive_posts.id = hive_ads.post_id").
			Where("hive_ads.account_id = ?", accountID).
			Order("hive_ads.post_id").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		out := make([]UserAd, 0, len(rows))
		for _, r := range rows {
			out = append(out, UserAd{Title: r.Title, Body: r.Body, AdType: r.Type, AdProperties: r.Properties})
		}
		return out, nil
	}

	var rows []struct {
		Title      string
		Body       string
		Type       string
		Properties string
		TimeUnits  int32
		BidAmount  decimal.Decimal
		BidToken   string
		StartTime  *time.Time
		Status     types.AdStatus
		ModNotes   string
	}
	err := m.db.Table("hive_ads").
		Select(`hive_posts.title, hive_posts.body, hive_ads.type, hive_ads.properties,
			hive_ads_state.time_units, hive_ads_state.bid_amount, hive_ads_state.bid_token,
			hive_ads_state.start_time, hive_ads_state.status, hive_ads_state.mod_notes`).
		Joins("JOIN hive_posts ON hive_posts.id = hive_ads.post_id").
		Joins("JOIN hive_ads_state ON hive_ads_state.post_id = hive_ads.post_id").
		Where("hive_ads.account_id = ? AND hive_ads_state.community_id = ?", accountID, *communityID).
		Order("hive_ads.post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]UserAd, 0, len(rows))
	for _, r := range rows {
		status := r.Status.String()
		row := r
		out = append(out, UserAd{
			Title:        r.Title,
			Body:         r.Body,
			AdType:       r.Type,
			AdProperties: r.Properties,
			TimeUnits:    &row.TimeUnits,
			BidAmount:    &row.BidAmount,
			BidToken:     &row.BidToken,
			StartTime:    r.StartTime,
			Status:       &status,
			ModNotes:     &row.ModNotes,
		})
	}
	return out, nil
}

// BidEntry is one row of the unapproved bidding queue.
type BidEntry struct {
	Author           string          `json:"author"`
	Title            string          `json:"title"`
	AdType           string          `json:"ad_type"`
	TimeUnits        int32           `json:"time_units"`
	BidAmount        decimal.Decimal `json:"bid_amount"`
	StartTime        *time.Time      `json:"start_time,omitempty"`
	PricePerTimeUnit decimal.Decimal `json:"price_per_time_unit"`
}

// ListBidMarket returns the community's submitted campaigns, ranked
// by price-per-time-unit, best bid first.
func (m Market) ListBidMarket(communityID uint64) ([]BidEntry, error) {
	var rows []struct {
		Author    string
		Title     string
		Type      string
		TimeUnits int32
		BidAmount decimal.Decimal
		StartTime *time.Time
	}
	err := m.db.Table("hive_ads_state").
		Select(`hive_accounts.name AS author, hive_posts.title, hive_ads.type,
			hive_ads_state.time_units, hive_ads_state.bid_amount, hive_ads_state.start_time`).
		Joins("JOIN hive_ads ON hive_ads.post_id = hive_ads_state.post_id").
		Joins("JOIN hive_posts ON hive_posts.id = hive_ads_state.post_id").
		Joins("JOIN hive_accounts ON hive_accounts.id = hive_ads_state.account_id").
		Where("hive_ads_state.community_id = ? AND hive_ads_state.status = ?",
			communityID, types.StatusSubmitted).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]BidEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, BidEntry{
			Author:           r.Author,
			Title:            r.Title,
			AdType:           r.Type,
			TimeUnits:        r.TimeUnits,
			BidAmount:        r.BidAmount,
			StartTime:        r.StartTime,
			PricePerTimeUnit: pricePerTimeUnit(r.BidAmount, r.TimeUnits),
		})
	}
	rankBids(out)
	return out, nil
}

func pricePerTimeUnit(bid decimal.Decimal, timeUnits int32) decimal.Decimal {
	if timeUnits <= 0 {
		return decimal.Zero
	}
	return bid.Div(decimal.NewFromInt(int64(timeUnits)))
}

// rankBids sorts descending by price-per-time-unit; ties keep the
// higher absolute bid first.
func rankBids(entries []BidEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].PricePerTimeUnit.Equal(entries[j].PricePerTimeUnit) {
			return entries[i].PricePerTimeUnit.GreaterThan(entries[j].PricePerTimeUnit)
		}
		return entries[i].BidAmount.GreaterThan(entries[j].BidAmount)
	})
}
