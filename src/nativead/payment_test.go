package nativead

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveio/hive-ads/src/types"
)

func TestParsePaymentMemo(t *testing.T) {
	ref, err := ParsePaymentMemo("hna:hive-133333/my-ad-post")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "hive-133333", ref.CommunityName)
	assert.Equal(t, "my-ad-post", ref.Permlink)

	// not an ad payment at all
	ref, err = ParsePaymentMemo("thanks for the coffee")
	assert.NoError(t, err)
	assert.Nil(t, ref)

	ref, err = ParsePaymentMemo("")
	assert.NoError(t, err)
	assert.Nil(t, ref)

	// claims to be one but is malformed
	_, err = ParsePaymentMemo("hna:hive-133333")
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "invalid ad payment memo; found (0) / characters instead of 1", se.Msg)

	_, err = ParsePaymentMemo("hna:hive-133333/a/b")
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "invalid ad payment memo; found (2) / characters instead of 1", se.Msg)
}

// ---------- reconciler fakes ----------

type fakeResolver struct {
	accounts    map[string]uint64
	communities map[string]uint64
	posts       map[string]uint64 // author/permlink
}

func (r *fakeResolver) ValidCommunityName(name string) bool {
	return communityNameOK(name)
}

func communityNameOK(name string) bool {
	if len(name) < 10 || name[:5] != "hive-" {
		return false
	}
	for _, c := range name[5:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return name[5] >= '1' && name[5] <= '3'
}

func (r *fakeResolver) CommunityID(name string) (uint64, error) {
	id, ok := r.communities[name]
	if !ok {
		return 0, LookupErrorf("community not found: %s", name)
	}
	return id, nil
}

func (r *fakeResolver) AccountID(name string) (uint64, error) {
	id, ok := r.accounts[name]
	if !ok {
		return 0, LookupErrorf("account not found: %s", name)
	}
	return id, nil
}

func (r *fakeResolver) PostID(author, permlink string) (uint64, error) {
	id, ok := r.posts[author+"/"+permlink]
	if !ok {
		return 0, LookupErrorf("post not found: @%s/%s", author, permlink)
	}
	return id, nil
}

type notice struct {
	dstID       uint64
	communityID *uint64
	postID      *uint64
	payload     string
}

type fakeNotifier struct{ sent []notice }

func (n *fakeNotifier) Error(dstID uint64, communityID, postID *uint64, when time.Time, payload string) {
	n.sent = append(n.sent, notice{dstID, communityID, postID, payload})
}

type reconFixture struct {
	*fixture
	recon    *Reconciler
	notifier *fakeNotifier
}

// newReconFixture stages an approved campaign for @alice (account 300)
// in hive-133333 (community 100), bidding 10.0 HIVE for 60 time units,
// starting 48h out.
func newReconFixture(t *testing.T) *reconFixture {
	t.Helper()
	f := newFixture(t)
	blk := NewBlockContext(1)
	f.apply(t, adOp(ActionSubmit, submitParams()), blk)
	f.apply(t, adOp(ActionApprove, map[string]interface{}{
		"start_time": testNow.Add(48 * time.Hour).Format(time.RFC3339),
		"mod_notes":  "ok",
	}), blk)

	resolver := &fakeResolver{
		accounts:    map[string]uint64{"alice": accountID, "hive-133333": 7000},
		communities: map[string]uint64{"hive-133333": commID},
		posts:       map[string]uint64{"alice/my-ad-post": postID},
	}
	notifier := &fakeNotifier{}
	return &reconFixture{
		fixture:  f,
		recon:    NewReconciler(f.engine, resolver, notifier),
		notifier: notifier,
	}
}

func adPayment(amount float64) TransferOp {
	return TransferOp{
		From:   "alice",
		To:     "hive-133333",
		Amount: decimal.NewFromFloat(amount),
		Token:  "HIVE",
		Memo:   "hna:hive-133333/my-ad-post",
	}
}

func TestReconcileFundsApprovedCampaign(t *testing.T) {
	f := newReconFixture(t)
	blk := NewBlockContext(2)

	require.NoError(t, f.recon.Reconcile(adPayment(10.0), testNow, blk))
	assert.Empty(t, f.notifier.sent)

	st, err := f.campaigns.Get(postID, commID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFunded, st.Status)
	assert.Equal(t, int32(60), st.TimeUnits)
}

func TestReconcileProRatesUnderpayment(t *testing.T) {
	f := newReconFixture(t)
	blk := NewBlockContext(2)

	// half of the 10.0 bid buys half of the 60 time units
	require.NoError(t, f.recon.Reconcile(adPayment(5.0), testNow, blk))
	assert.Empty(t, f.notifier.sent)

	st, err := f.campaigns.Get(postID, commID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFunded, st.Status)
	assert.Equal(t, int32(30), st.TimeUnits)
}

func TestReconcileIgnoresNonAdTransfers(t *testing.T) {
	f := newReconFixture(t)
	blk := NewBlockContext(2)

	tr := adPayment(10.0)
	tr.Memo = "for the meetup"
	require.NoError(t, f.recon.Reconcile(tr, testNow, blk))
	assert.Empty(t, f.notifier.sent)

	st, err := f.campaigns.Get(postID, commID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusApproved, st.Status)
}

func TestReconcileNotifiesOnMalformedMemo(t *testing.T) {
	f := newReconFixture(t)
	blk := NewBlockContext(2)

	tr := adPayment(10.0)
	tr.Memo = "hna:hive-133333"
	require.NoError(t, f.recon.Reconcile(tr, testNow, blk))
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, accountID, f.notifier.sent[0].dstID)
	assert.Nil(t, f.notifier.sent[0].communityID)
	assert.Contains(t, f.notifier.sent[0].payload, "invalid ad payment memo")
}

func TestReconcileNotifiesOnBadCommunityName(t *testing.T) {
	f := newReconFixture(t)
	blk := NewBlockContext(2)

	tr := adPayment(10.0)
	tr.Memo = "hna:not-a-community/my-ad-post"
	require.NoError(t, f.recon.Reconcile(tr, testNow, blk))
	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0].payload, "invalid community name entered")
}

func TestReconcileNotifiesOnUnknownPost(t *testing.T) {
	f := newReconFixture(t)
	blk := NewBlockContext(2)

	tr := adPayment(10.0)
	tr.Memo = "hna:hive-133333/no-such-post"
	require.NoError(t, f.recon.Reconcile(tr, testNow, blk))
	require.Len(t, f.notifier.sent, 1)
	require.NotNil(t, f.notifier.sent[0].communityID)
	assert.Equal(t, commID, *f.notifier.sent[0].communityID)
	assert.Nil(t, f.notifier.sent[0].postID)
}

func TestReconcileNotifiesOnValidationFailure(t *testing.T) {
	f := newReconFixture(t)
	blk := NewBlockContext(2)

	tr := adPayment(10.0)
	tr.Token = "SBD"
	require.NoError(t, f.recon.Reconcile(tr, testNow, blk))
	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0].payload, "wrong token sent")
	require.NotNil(t, f.notifier.sent[0].postID)
	assert.Equal(t, postID, *f.notifier.sent[0].postID)

	// campaign untouched
	st, err := f.campaigns.Get(postID, commID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusApproved, st.Status)
}

func TestReconcileNotifiesOnWrongDestination(t *testing.T) {
	f := newReconFixture(t)
	blk := NewBlockContext(2)

	tr := adPayment(10.0)
	tr.To = "mallory"
	require.NoError(t, f.recon.Reconcile(tr, testNow, blk))
	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0].payload, "tokens sent to wrong account")
}

func TestReconcileSwallowsUnknownSender(t *testing.T) {
	f := newReconFixture(t)
	blk := NewBlockContext(2)

	tr := adPayment(10.0)
	tr.From = "nobody"
	require.NoError(t, f.recon.Reconcile(tr, testNow, blk))
	assert.Empty(t, f.notifier.sent)
}
