package notify

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/hiveio/hive-ads/src/types"
)

const (
	streamNotifs = "hive.ads.notifs"
	defaultScore = 35
)

// Writer persists notifications and mirrors them onto a Redis stream
// for live consumers. Delivery is best effort: failures are logged,
// never propagated, so a notification can't stall block processing.
type Writer struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewWriter(db *gorm.DB, rdb *redis.Client) *Writer {
	return &Writer{db: db, rdb: rdb}
}

// Error writes an error-type notification addressed to dstID.
func (w *Writer) Error(dstID uint64, communityID, postID *uint64, when time.Time, payload string) {
	n := types.Notification{
		ID:          uuid.NewString(),
		TypeID:      types.NotifyError,
		Score:       defaultScore,
		CreatedAt:   when,
		DstID:       &dstID,
		CommunityID: communityID,
		PostID:      postID,
		Payload:     payload,
	}
	if err := w.db.Create(&n).Error; err != nil {
		log.Printf("notify: write failed for account %d: %v", dstID, err)
		return
	}
	w.publish(n)
}

func (w *Writer) publish(n types.Notification) {
	if w.rdb == nil {
		return
	}
	values := map[string]interface{}{
		"id":      n.ID,
		"type":    int(n.TypeID),
		"dst":     derefOrZero(n.DstID),
		"payload": n.Payload,
	}
	if err := w.rdb.XAdd(context.Background(), &redis.XAddArgs{
		Stream: streamNotifs,
		Values: values,
	}).Err(); err != nil {
		log.Printf("notify: stream publish failed: %v", err)
	}
}

func derefOrZero(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}
