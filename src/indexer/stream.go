package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/hiveio/hive-ads/src/nativead"
)

// StreamBlocks is the Redis stream the transaction decoder publishes
// decoded blocks to, one entry per block, in block order.
const StreamBlocks = "hive.ads.blocks"

type wireBlock struct {
	Num   uint64     `json:"num"`
	Time  time.Time  `json:"time"`
	Items []wireItem `json:"items"`
}

type wireItem struct {
	// "ad" or "transfer"
	Kind string `json:"kind"`

	// ad intent
	Action      string                 `json:"action,omitempty"`
	Params      map[string]interface{} `json:"params,omitempty"`
	CommunityID uint64                 `json:"community_id,omitempty"`
	PostID      uint64                 `json:"post_id,omitempty"`
	AccountID   uint64                 `json:"account_id,omitempty"`

	// transfer
	From   string          `json:"from,omitempty"`
	To     string          `json:"to,omitempty"`
	Amount decimal.Decimal `json:"amount,omitempty"`
	Token  string          `json:"token,omitempty"`
	Memo   string          `json:"memo,omitempty"`
}

// DecodeBlock parses one stream payload. Numeric params keep their
// textual form (json.Number) so the schema validator can type-check
// them without float drift.
func DecodeBlock(payload []byte) (Block, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var wb wireBlock
	if err := dec.Decode(&wb); err != nil {
		return Block{}, fmt.Errorf("decode block: %w", err)
	}

	b := Block{Num: wb.Num, Time: wb.Time}
	for _, it := range wb.Items {
		switch it.Kind {
		case "ad":
			b.Items = append(b.Items, Item{Ad: &nativead.Op{
				Action:      nativead.Action(it.Action),
				Params:      it.Params,
				CommunityID: it.CommunityID,
				PostID:      it.PostID,
				AccountID:   it.AccountID,
				BlockNum:    wb.Num,
			}})
		case "transfer":
			b.Items = append(b.Items, Item{Transfer: &nativead.TransferOp{
				From:   it.From,
				To:     it.To,
				Amount: it.Amount,
				Token:  it.Token,
				Memo:   it.Memo,
			}})
		default:
			return Block{}, fmt.Errorf("block %d: unknown item kind %q", wb.Num, it.Kind)
		}
	}
	return b, nil
}

// StreamReader consumes decoded blocks and feeds them through the
// processor sequentially. One consumer, one stream: ordering is the
// decoder's responsibility.
type StreamReader struct {
	rdb  *redis.Client
	proc *Processor
}

func NewStreamReader(rdb *redis.Client, proc *Processor) *StreamReader {
	return &StreamReader{rdb: rdb, proc: proc}
}

func (s *StreamReader) Run(ctx context.Context) error {
	lastID := "$"
	for {
		res, err := s.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{StreamBlocks, lastID},
			Block:   5 * time.Second,
		}).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("indexer: stream read: %v", err)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				payload, _ := msg.Values["block"].(string)
				b, err := DecodeBlock([]byte(payload))
				if err != nil {
					log.Printf("indexer: %v", err)
					lastID = msg.ID
					continue
				}
				if err := s.proc.ProcessBlock(b); err != nil {
					return fmt.Errorf("block %d: %w", b.Num, err)
				}
				lastID = msg.ID
			}
		}
	}
}
