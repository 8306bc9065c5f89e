package indexer

import (
	"log"
	"time"

	"github.com/hiveio/hive-ads/src/nativead"
)

// Item is one op of a block, in intra-block order. Exactly one field
// is set: a decoded ad intent or a token transfer.
type Item struct {
	Ad       *nativead.Op
	Transfer *nativead.TransferOp
}

// Block carries the decoded ops of one block, already in on-chain
// order.
type Block struct {
	Num   uint64
	Time  time.Time
	Items []Item
}

// Processor replays ad-relevant ops block by block. Each block gets a
// fresh BlockContext; the context must live for the whole block and
// no longer, or same-block conflict detection breaks.
type Processor struct {
	engine     *nativead.Engine
	reconciler *nativead.Reconciler
}

func New(engine *nativead.Engine, reconciler *nativead.Reconciler) *Processor {
	return &Processor{engine: engine, reconciler: reconciler}
}

// ProcessBlock applies every item of the block in order. A direct ad
// intent that fails validation is logged and skipped; a failed
// payment is reported to the payer by the reconciler. Only store
// failures abort the block.
func (p *Processor) ProcessBlock(b Block) error {
	blk := nativead.NewBlockContext(b.Num)

	for _, it := range b.Items {
		switch {
		case it.Ad != nil:
			op := *it.Ad
			op.BlockNum = b.Num
			t, err := p.engine.Validate(op, blk)
			if err != nil {
				log.Printf("block %d: %s op (community %d, post %d) skipped: %v",
					b.Num, op.Action, op.CommunityID, op.PostID, err)
				continue
			}
			if err := p.engine.Apply(t, blk); err != nil {
				return err
			}

		case it.Transfer != nil:
			if err := p.reconciler.Reconcile(*it.Transfer, b.Time, blk); err != nil {
				return err
			}
		}
	}

	return nil
}
