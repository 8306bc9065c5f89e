package data

import (
	"errors"
	"regexp"

	"gorm.io/gorm"

	"github.com/hiveio/hive-ads/src/nativead"
	"github.com/hiveio/hive-ads/src/types"
)

// Community names are of the form hive-<category digit><4+ digits>.
var communityNameRe = regexp.MustCompile(`^hive-[123]\d{4,6}$`)

// Resolver maps on-chain names to surrogate ids.
type Resolver struct{ db *gorm.DB }

func NewResolver(db *gorm.DB) Resolver { return Resolver{db: db} }

func (r Resolver) ValidCommunityName(name string) bool {
	return communityNameRe.MatchString(name)
}

func (r Resolver) CommunityID(name string) (uint64, error) {
	var c types.Community
	err := r.db.First(&c, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nativead.LookupErrorf("community not found: %s", name)
	}
	if err != nil {
		return 0, err
	}
	return c.ID, nil
}

func (r Resolver) AccountID(name string) (uint64, error) {
	var a types.Account
	err := r.db.First(&a, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nativead.LookupErrorf("account not found: %s", name)
	}
	if err != nil {
		return 0, err
	}
	return a.ID, nil
}

func (r Resolver) PostID(author, permlink string) (uint64, error) {
	accountID, err := r.AccountID(author)
	if err != nil {
		return 0, err
	}
	var p types.Post
	err = r.db.First(&p, "account_id = ? AND permlink = ?", accountID, permlink).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nativead.LookupErrorf("post not found: @%s/%s", author, permlink)
	}
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}
