package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ad lifecycle status, per (post, community). The numeric order is
// part of the contract: anything above StatusSubmitted holds committed
// time capacity in its community.
type AdStatus uint8

const (
	StatusDraft     AdStatus = 0
	StatusSubmitted AdStatus = 1
	StatusApproved  AdStatus = 2
	StatusFunded    AdStatus = 3
)

func (s AdStatus) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusSubmitted:
		return "submitted"
	case StatusApproved:
		return "approved"
	case StatusFunded:
		return "funded"
	}
	return "unknown"
}

// Active reports whether the status commits time capacity
// (approved or funded).
func (s AdStatus) Active() bool {
	return s > StatusSubmitted
}

// Communities
type Community struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"size:32;unique;not null"` // e.g. hive-133333
	Title string `gorm:"size:255"`
}

func (Community) TableName() string { return "hive_communities" }

// Accounts
type Account struct {
	ID   uint64 `gorm:"primaryKey"`
	Name string `gorm:"size:16;unique;not null"`
}

func (Account) TableName() string { return "hive_accounts" }

// Posts
type Post struct {
	ID        uint64 `gorm:"primaryKey"`
	AccountID uint64 `gorm:"index;not null"`
	Permlink  string `gorm:"size:255;not null"`
	Title     string `gorm:"size:255"`
	Body      string `gorm:"type:text"`
}

func (Post) TableName() string { return "hive_posts" }

// Ad registry: a post that declared native_ad metadata. One row per
// post, regardless of how many communities it is submitted to.
type Ad struct {
	PostID     uint64 `gorm:"primaryKey"`
	AccountID  uint64 `gorm:"index;not null"`
	Type       string `gorm:"size:16;not null"`
	Properties string `gorm:"type:text;not null"` // JSON object
}

func (Ad) TableName() string { return "hive_ads" }

// Per-community lifecycle state of an ad.
type AdState struct {
	PostID      uint64          `gorm:"primaryKey;autoIncrement:false"`
	CommunityID uint64          `gorm:"primaryKey;autoIncrement:false"`
	AccountID   uint64          `gorm:"index;not null"`
	TimeUnits   int32           `gorm:"not null"` // minutes
	BidAmount   decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	BidToken    string          `gorm:"size:16;not null"`
	StartTime   *time.Time
	Status      AdStatus `gorm:"not null;default:0"`
	ModNotes    string   `gorm:"size:255;not null;default:''"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (AdState) TableName() string { return "hive_ads_state" }

// Community-level ad policy, created lazily with ads disabled.
type AdsSettings struct {
	CommunityID      uint64 `gorm:"primaryKey;autoIncrement:false"`
	Enabled          bool   `gorm:"not null;default:false"`
	Token            string `gorm:"size:16;not null;default:'STEEM'"`
	Burn             bool   `gorm:"not null;default:false"`
	MinBid           *decimal.Decimal `gorm:"type:decimal(18,6)"`
	MinTimeBid       *int32
	MaxTimeBid       *int32
	MaxTimeActive    *int32
	ScheduledDelay   int32 `gorm:"not null;default:1440"` // minutes of lead time
	ScheduledTimeout *int32
}

func (AdsSettings) TableName() string { return "hive_ads_settings" }

// Notification type ids.
type NotifyType uint8

const (
	NotifyError NotifyType = 10
)

// Notifications written on soft failures (payment reconciliation).
type Notification struct {
	ID          string `gorm:"primaryKey;size:36"`
	TypeID      NotifyType
	Score       int16
	CreatedAt   time.Time
	SrcID       *uint64
	DstID       *uint64
	CommunityID *uint64
	PostID      *uint64
	Payload     string `gorm:"type:text"`
}

func (Notification) TableName() string { return "hive_notifs" }
