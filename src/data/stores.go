package data

import (
	"errors"

	"gorm.io/gorm"

	"github.com/hiveio/hive-ads/src/types"
)

// Ads is the gorm-backed ad post registry.
type Ads struct{ db *gorm.DB }

func NewAds(db *gorm.DB) Ads { return Ads{db: db} }

func (a Ads) Has(postID uint64) (bool, error) {
	var n int64
	err := a.db.Model(&types.Ad{}).Where("post_id = ?", postID).Count(&n).Error
	return n > 0, err
}

func (a Ads) Insert(ad *types.Ad) error {
	return a.db.Create(ad).Error
}

func (a Ads) Update(ad *types.Ad) error {
	return a.db.Model(&types.Ad{}).Where("post_id = ?", ad.PostID).
		Updates(map[string]interface{}{
			"type":       ad.Type,
			"properties": ad.Properties,
		}).Error
}

// Campaigns is the gorm-backed campaign lifecycle store.
type Campaigns struct{ db *gorm.DB }

func NewCampaigns(db *gorm.DB) Campaigns { return Campaigns{db: db} }

func (c Campaigns) Get(postID, communityID uint64) (*types.AdState, error) {
	var st types.AdState
	err := c.db.First(&st, "post_id = ? AND community_id = ?", postID, communityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (c Campaigns) Statuses(postID uint64) ([]types.AdStatus, error) {
	var statuses []types.AdStatus
	err := c.db.Model(&types.AdState{}).Where("post_id = ?", postID).
		Pluck("status", &statuses).Error
	return statuses, err
}

func (c Campaigns) Insert(st *types.AdState) error {
	return c.db.Create(st).Error
}

func (c Campaigns) Update(st *types.AdState) error {
	return c.db.Save(st).Error
}

func (c Campaigns) ActiveTimeUnits(communityID, accountID uint64) (int64, error) {
	var total int64
	err := c.db.Model(&types.AdState{}).
		Select("COALESCE(SUM(time_units), 0)").
		Where("community_id = ? AND account_id = ? AND status > ?",
			communityID, accountID, types.StatusSubmitted).
		Scan(&total).Error
	return total, err
}

func (c Campaigns) ActiveCampaigns(communityID uint64) ([]types.AdState, error) {
	var out []types.AdState
	err := c.db.
		Where("community_id = ? AND status > ? AND start_time IS NOT NULL",
			communityID, types.StatusSubmitted).
		Find(&out).Error
	return out, err
}

// Settings is the gorm-backed community ad-settings store. Get
// creates the default record (ads disabled) on first access; safe as
// a read-then-insert only because block replay is sequential.
type Settings struct{ db *gorm.DB }

func NewSettings(db *gorm.DB) Settings { return Settings{db: db} }

func (s Settings) Get(communityID uint64) (*types.AdsSettings, error) {
	var row types.AdsSettings
	err := s.db.First(&row, "community_id = ?", communityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = types.AdsSettings{
			CommunityID:    communityID,
			Enabled:        false,
			Token:          "STEEM",
			ScheduledDelay: 1440,
		}
		if err := s.db.Create(&row).Error; err != nil {
			return nil, err
		}
		return &row, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s Settings) Apply(communityID uint64, changes map[string]interface{}) error {
	if len(changes) == 0 {
		return nil
	}
	return s.db.Model(&types.AdsSettings{}).
		Where("community_id = ?", communityID).
		Updates(changes).Error
}
