package indexer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveio/hive-ads/src/nativead"
	"github.com/hiveio/hive-ads/src/types"
)

func TestDecodeBlock(t *testing.T) {
	payload := []byte(`{
		"num": 42,
		"time": "2020-06-01T00:00:00Z",
		"items": [
			{"kind": "ad", "action": "adSubmit",
			 "params": {"time_units": 60, "bid_amount": 10.5, "bid_token": "HIVE"},
			 "community_id": 100, "post_id": 200, "account_id": 300},
			{"kind": "transfer", "from": "alice", "to": "hive-133333",
			 "amount": "10.5", "token": "HIVE", "memo": "hna:hive-133333/my-ad"}
		]
	}`)

	b, err := DecodeBlock(payload)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), b.Num)
	assert.Equal(t, time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), b.Time.UTC())
	require.Len(t, b.Items, 2)

	ad := b.Items[0].Ad
	require.NotNil(t, ad)
	assert.Equal(t, nativead.ActionSubmit, ad.Action)
	assert.Equal(t, uint64(100), ad.CommunityID)
	assert.Equal(t, uint64(42), ad.BlockNum)
	// numeric params keep their textual form
	assert.Equal(t, json.Number("60"), ad.Params["time_units"])
	assert.Equal(t, json.Number("10.5"), ad.Params["bid_amount"])

	tr := b.Items[1].Transfer
	require.NotNil(t, tr)
	assert.Equal(t, "alice", tr.From)
	assert.True(t, tr.Amount.Equal(decimal.RequireFromString("10.5")))
	assert.Equal(t, "hna:hive-133333/my-ad", tr.Memo)
}

func TestDecodeBlockRejectsUnknownKind(t *testing.T) {
	_, err := DecodeBlock([]byte(`{"num": 7, "items": [{"kind": "vote"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown item kind "vote"`)

	_, err = DecodeBlock([]byte(`not json`))
	assert.Error(t, err)
}

// ---------- processor fakes ----------

type fakeAds struct{ known map[uint64]bool }

func (f *fakeAds) Has(postID uint64) (bool, error) { return f.known[postID], nil }
func (f *fakeAds) Insert(ad *types.Ad) error       { f.known[ad.PostID] = true; return nil }
func (f *fakeAds) Update(ad *types.Ad) error       { return nil }

type campKey struct{ post, comm uint64 }

type fakeCampaigns struct{ states map[campKey]*types.AdState }

func (f *fakeCampaigns) Get(postID, communityID uint64) (*types.AdState, error) {
	st, ok := f.states[campKey{postID, communityID}]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (f *fakeCampaigns) Statuses(postID uint64) ([]types.AdStatus, error) { return nil, nil }

func (f *fakeCampaigns) Insert(st *types.AdState) error {
	cp := *st
	f.states[campKey{st.PostID, st.CommunityID}] = &cp
	return nil
}

func (f *fakeCampaigns) Update(st *types.AdState) error { return f.Insert(st) }

func (f *fakeCampaigns) ActiveTimeUnits(communityID, accountID uint64) (int64, error) {
	return 0, nil
}

func (f *fakeCampaigns) ActiveCampaigns(communityID uint64) ([]types.AdState, error) {
	return nil, nil
}

type fakeSettings struct{}

func (fakeSettings) Get(communityID uint64) (*types.AdsSettings, error) {
	return &types.AdsSettings{CommunityID: communityID, Enabled: true, Token: "HIVE"}, nil
}

func (fakeSettings) Apply(communityID uint64, changes map[string]interface{}) error { return nil }

type dropResolver struct{}

func (dropResolver) ValidCommunityName(string) bool      { return false }
func (dropResolver) CommunityID(string) (uint64, error)  { return 0, nativead.LookupErrorf("no") }
func (dropResolver) AccountID(string) (uint64, error)    { return 0, nativead.LookupErrorf("no") }
func (dropResolver) PostID(a, p string) (uint64, error)  { return 0, nativead.LookupErrorf("no") }

type dropNotifier struct{}

func (dropNotifier) Error(uint64, *uint64, *uint64, time.Time, string) {}

func newTestProcessor() (*Processor, *fakeCampaigns) {
	ads := &fakeAds{known: map[uint64]bool{200: true}}
	campaigns := &fakeCampaigns{states: map[campKey]*types.AdState{}}
	engine := nativead.NewEngine(ads, campaigns, fakeSettings{})
	recon := nativead.NewReconciler(engine, dropResolver{}, dropNotifier{})
	return New(engine, recon), campaigns
}

func submitItem(postID uint64) Item {
	return Item{Ad: &nativead.Op{
		Action: nativead.ActionSubmit,
		Params: map[string]interface{}{
			"time_units": 60, "bid_amount": 10.0, "bid_token": "HIVE",
		},
		CommunityID: 100,
		PostID:      postID,
		AccountID:   300,
	}}
}

func TestProcessBlockAppliesValidOps(t *testing.T) {
	proc, campaigns := newTestProcessor()

	err := proc.ProcessBlock(Block{Num: 1, Time: time.Now(), Items: []Item{submitItem(200)}})
	require.NoError(t, err)

	st, err := campaigns.Get(200, 100)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, types.StatusSubmitted, st.Status)
}

func TestProcessBlockSkipsInvalidOps(t *testing.T) {
	proc, campaigns := newTestProcessor()

	// post 999 is not a registered ad; the bad op must not stop the
	// valid one behind it
	err := proc.ProcessBlock(Block{Num: 1, Time: time.Now(), Items: []Item{
		submitItem(999),
		submitItem(200),
	}})
	require.NoError(t, err)

	st, err := campaigns.Get(200, 100)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, types.StatusSubmitted, st.Status)

	missing, err := campaigns.Get(999, 100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProcessBlockIgnoresForeignTransfers(t *testing.T) {
	proc, _ := newTestProcessor()

	err := proc.ProcessBlock(Block{Num: 1, Time: time.Now(), Items: []Item{
		{Transfer: &nativead.TransferOp{
			From: "alice", To: "bob",
			Amount: decimal.NewFromInt(1), Token: "HIVE", Memo: "lunch",
		}},
	}})
	assert.NoError(t, err)
}
