package nativead

import (
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransferOp is a decoded token transfer, already split into amount
// and symbol by the transaction decoder.
type TransferOp struct {
	From   string
	To     string
	Amount decimal.Decimal
	Token  string
	Memo   string
}

// PaymentRef is the campaign reference carried in an ad payment memo.
type PaymentRef struct {
	CommunityName string
	Permlink      string
}

// ParsePaymentMemo recognizes ad payment memos of the form
// `hna:<community-name>/<permlink>`. Returns (nil, nil) for memos
// that are not ad payments at all; a non-nil error means the memo
// claimed to be one but is malformed.
func ParsePaymentMemo(memo string) (*PaymentRef, error) {
	if !strings.HasPrefix(memo, "hna:") {
		return nil, nil
	}
	ref := strings.TrimSpace(memo[4:])
	if n := strings.Count(ref, "/"); n != 1 {
		return nil, schemaErrorf("invalid ad payment memo; found (%d) / characters instead of 1", n)
	}
	parts := strings.SplitN(ref, "/", 2)
	return &PaymentRef{
		CommunityName: strings.TrimSpace(parts[0]),
		Permlink:      strings.TrimSpace(parts[1]),
	}, nil
}

// Resolver maps on-chain names to surrogate identifiers. Not-found
// conditions come back as LookupError.
type Resolver interface {
	ValidCommunityName(name string) bool
	CommunityID(name string) (uint64, error)
	AccountID(name string) (uint64, error)
	PostID(author, permlink string) (uint64, error)
}

// Notifier delivers soft-failure notices. Best effort; delivery
// problems are the notifier's to log.
type Notifier interface {
	Error(dstID uint64, communityID, postID *uint64, when time.Time, payload string)
}

// Reconciler maps ad payment transfers onto adFund transitions. A
// payment that fails validation is reported to the payer and
// swallowed: a malformed or late on-chain payment must not abort
// processing of the rest of the block. Direct ad intents, by
// contrast, fail loudly to the indexer's op log.
type Reconciler struct {
	engine   *Engine
	resolver Resolver
	notifier Notifier
}

func NewReconciler(engine *Engine, resolver Resolver, notifier Notifier) *Reconciler {
	return &Reconciler{engine: engine, resolver: resolver, notifier: notifier}
}

// Reconcile inspects a transfer and, when its memo references a
// campaign, synthesizes and applies the adFund transition. Only store
// failures propagate; every validation failure is routed to the payer.
func (r *Reconciler) Reconcile(tr TransferOp, blockTime time.Time, blk *BlockContext) error {
	ref, memoErr := ParsePaymentMemo(tr.Memo)
	if ref == nil && memoErr == nil {
		return nil // not an ad payment
	}

	accountID, err := r.resolver.AccountID(tr.From)
	if err != nil {
		// nobody to notify
		log.Printf("ad payment from unknown account %q: %v", tr.From, err)
		return nil
	}

	if memoErr != nil {
		r.notifier.Error(accountID, nil, nil, blockTime, memoErr.Error())
		return nil
	}

	if !r.resolver.ValidCommunityName(ref.CommunityName) {
		r.notifier.Error(accountID, nil, nil, blockTime,
			"invalid community name entered ("+ref.CommunityName+")")
		return nil
	}
	communityID, err := r.resolver.CommunityID(ref.CommunityName)
	if err != nil {
		r.notifier.Error(accountID, nil, nil, blockTime, err.Error())
		return nil
	}
	postID, err := r.resolver.PostID(tr.From, ref.Permlink)
	if err != nil {
		r.notifier.Error(accountID, &communityID, nil, blockTime, err.Error())
		return nil
	}

	op := Op{
		Action: ActionFund,
		Params: map[string]interface{}{
			"amount": tr.Amount,
			"token":  tr.Token,
		},
		CommunityID:   communityID,
		PostID:        postID,
		AccountID:     accountID,
		BlockNum:      blk.Num(),
		ToAccount:     tr.To,
		CommunityName: ref.CommunityName,
	}

	t, err := r.engine.Validate(op, blk)
	if err != nil {
		r.notifier.Error(accountID, &communityID, &postID, blockTime, err.Error())
		return nil
	}
	return r.engine.Apply(t, blk)
}
