package nativead

// BlockContext is the one-block-deep memory of applied ad ops. The
// indexer constructs one per block and passes it into every
// Validate/Apply call for that block, then discards it; entries never
// outlive the block they were recorded in.
//
// It lets a later op in the same block see that an earlier op already
// touched the same ad, which the durable state alone cannot tell it
// at decision time (e.g. a reject that already flipped status to
// draft before a legitimate payment for the same ad arrives).
type BlockContext struct {
	num     uint64
	entries []histEntry
}

type histEntry struct {
	communityID uint64
	accountID   uint64
	postID      uint64
	action      Action
}

func NewBlockContext(num uint64) *BlockContext {
	return &BlockContext{num: num}
}

func (b *BlockContext) Num() uint64 { return b.num }

// Record notes a successfully applied op.
func (b *BlockContext) Record(communityID, accountID, postID uint64, action Action) {
	b.entries = append(b.entries, histEntry{
		communityID: communityID,
		accountID:   accountID,
		postID:      postID,
		action:      action,
	})
}

// Seen reports whether an op with this exact signature already
// applied earlier in this block.
func (b *BlockContext) Seen(communityID, accountID, postID uint64, action Action) bool {
	ref := histEntry{
		communityID: communityID,
		accountID:   accountID,
		postID:      postID,
		action:      action,
	}
	for _, e := range b.entries {
		if e == ref {
			return true
		}
	}
	return false
}
