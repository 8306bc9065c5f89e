package nativead

import (
	"time"

	"github.com/hiveio/hive-ads/src/types"
)

// AdStore is the ad post registry (posts that declared native_ad
// metadata).
type AdStore interface {
	Has(postID uint64) (bool, error)
	Insert(ad *types.Ad) error
	Update(ad *types.Ad) error
}

// CampaignStore is the per-(post, community) lifecycle state store.
// Get returns (nil, nil) when no record exists; absence is meaningful
// (implicit "none" status, distinct from draft).
type CampaignStore interface {
	Get(postID, communityID uint64) (*types.AdState, error)
	Statuses(postID uint64) ([]types.AdStatus, error)
	Insert(state *types.AdState) error
	Update(state *types.AdState) error
	ActiveTimeUnits(communityID, accountID uint64) (int64, error)
	ActiveCampaigns(communityID uint64) ([]types.AdState, error)
}

// SettingsStore returns a community's ad policy, creating the default
// (ads disabled) record on first access.
type SettingsStore interface {
	Get(communityID uint64) (*types.AdsSettings, error)
	Apply(communityID uint64, changes map[string]interface{}) error
}

// Op is one decoded ad intent plus the ambient identifiers supplied
// by the indexer.
type Op struct {
	Action      Action
	Params      map[string]interface{}
	CommunityID uint64
	PostID      uint64
	AccountID   uint64
	BlockNum    uint64

	// Transfer context, set only on ops synthesized by the payment
	// reconciler. Empty for direct intents; the payment-destination
	// check is skipped without it.
	ToAccount     string
	CommunityName string
}

// Transition is a validated op together with everything Apply needs:
// the loaded records and the flags the guards decided on. Apply is
// not idempotent and assumes Validate succeeded.
type Transition struct {
	op       Op
	params   Params
	state    *types.AdState
	settings *types.AdsSettings

	newState         bool
	overrideReject   bool
	reducedTimeUnits *int32
}

// Engine validates and applies ad lifecycle transitions. It assumes
// the indexer feeds it ops strictly in on-chain order; per-pair
// serialization comes from that, not from locking.
type Engine struct {
	ads       AdStore
	campaigns CampaignStore
	settings  SettingsStore

	// Now is the processing clock, overridable in tests.
	Now func() time.Time
}

func NewEngine(ads AdStore, campaigns CampaignStore, settings SettingsStore) *Engine {
	return &Engine{
		ads:       ads,
		campaigns: campaigns,
		settings:  settings,
		Now:       time.Now,
	}
}

// Validate checks op against the schema tables, the lifecycle rules
// for the ad's current status, community policy and the scheduling
// calendar. On success it returns the Transition for Apply.
func (e *Engine) Validate(op Op, blk *BlockContext) (*Transition, error) {
	params, err := ParseParams(op.Action, op.Params)
	if err != nil {
		return nil, err
	}

	settings, err := e.settings.Get(op.CommunityID)
	if err != nil {
		return nil, err
	}

	t := &Transition{op: op, params: params, settings: settings}

	if err := e.validateState(t, blk); err != nil {
		return nil, err
	}
	if err := e.validateCompliance(t); err != nil {
		return nil, err
	}
	if err := e.validateSchedule(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (e *Engine) validateState(t *Transition, blk *BlockContext) error {
	op := t.op
	if op.Action == ActionUpdateSettings {
		return nil
	}

	valid, err := e.ads.Has(op.PostID)
	if err != nil {
		return err
	}
	if !valid {
		return stateErrorf("the specified post is not a valid ad")
	}

	t.state, err = e.campaigns.Get(op.PostID, op.CommunityID)
	if err != nil {
		return err
	}
	t.newState = t.state == nil

	if op.Action == ActionSubmit {
		if t.state != nil && t.state.Status != types.StatusDraft {
			return stateErrorf("can only submit ads that are new or in draft status")
		}
		return nil
	}

	if t.state == nil {
		return stateErrorf("ad not yet submitted to community; cannot perform %s op", op.Action)
	}
	status := t.state.Status

	switch op.Action {
	case ActionBid:
		if status != types.StatusSubmitted {
			return stateErrorf("can only bid for ads that are pending review")
		}

	case ActionWithdraw:
		if status != types.StatusSubmitted && status != types.StatusApproved {
			return stateErrorf("can only withdraw submitted or approved ads, not '%s' ads", status)
		}

	case ActionFund:
		conflictRej := blk.Seen(op.CommunityID, op.AccountID, op.PostID, ActionReject)
		if conflictRej && status == types.StatusDraft {
			// A reject earlier in this block flipped the status; the
			// payment was already on its way, so the reject loses.
			t.overrideReject = true
		} else if status != types.StatusApproved {
			return stateErrorf("you have funded an ad with status '%s'; "+
				"consider contacting the community management to resolve this", status)
		}

	case ActionApprove:
		if status != types.StatusSubmitted {
			return stateErrorf("can only approve ads that are pending review")
		}
		if t.state.StartTime != nil {
			if t.params.StartTime != nil {
				return stateErrorf("ad already has a start_time; cannot overwrite a customer's start_time")
			}
		} else if t.params.StartTime == nil {
			return stateErrorf("no start_time provided for unscheduled ad")
		}

	case ActionReject:
		conflictFund := blk.Seen(op.CommunityID, op.AccountID, op.PostID, ActionFund)
		if !conflictFund && !e.adTimedOut(t) && status != types.StatusSubmitted {
			return stateErrorf("can only reject ads that are pending review or timed out")
		}
	}

	return nil
}

// adTimedOut reports whether an approved campaign's funding window
// has closed: start_time (plus the community's scheduled_timeout
// grace, if any) has elapsed without payment.
func (e *Engine) adTimedOut(t *Transition) bool {
	if t.state == nil || t.state.Status != types.StatusApproved || t.state.StartTime == nil {
		return false
	}
	deadline := *t.state.StartTime
	if t.settings.ScheduledTimeout != nil {
		deadline = deadline.Add(time.Duration(*t.settings.ScheduledTimeout) * time.Minute)
	}
	return e.Now().After(deadline)
}

// Apply persists a validated transition and records it in the block
// context. Must not be called unless Validate returned t.
func (e *Engine) Apply(t *Transition, blk *BlockContext) error {
	op := t.op
	p := t.params

	switch op.Action {
	case ActionUpdateSettings:
		if err := e.settings.Apply(op.CommunityID, settingsChanges(p)); err != nil {
			return err
		}
		blk.Record(op.CommunityID, op.AccountID, op.PostID, op.Action)
		return nil

	case ActionSubmit:
		if t.newState {
			st := &types.AdState{
				PostID:      op.PostID,
				CommunityID: op.CommunityID,
				AccountID:   op.AccountID,
				TimeUnits:   *p.TimeUnits,
				BidAmount:   *p.BidAmount,
				BidToken:    *p.BidToken,
				StartTime:   p.StartTime,
				Status:      types.StatusSubmitted,
			}
			if err := e.campaigns.Insert(st); err != nil {
				return err
			}
			t.state = st
		} else {
			st := t.state
			st.TimeUnits = *p.TimeUnits
			st.BidAmount = *p.BidAmount
			st.BidToken = *p.BidToken
			if p.StartTime != nil {
				st.StartTime = p.StartTime
			}
			st.Status = types.StatusSubmitted
			if err := e.campaigns.Update(st); err != nil {
				return err
			}
		}

	case ActionBid:
		st := t.state
		if p.TimeUnits != nil {
			st.TimeUnits = *p.TimeUnits
		}
		st.BidAmount = *p.BidAmount
		st.BidToken = *p.BidToken
		if p.StartTime != nil {
			st.StartTime = p.StartTime
		}
		if err := e.campaigns.Update(st); err != nil {
			return err
		}

	case ActionApprove:
		st := t.state
		if p.StartTime != nil {
			st.StartTime = p.StartTime
		}
		st.ModNotes = *p.ModNotes
		st.Status = types.StatusApproved
		if err := e.campaigns.Update(st); err != nil {
			return err
		}

	case ActionReject:
		st := t.state
		st.Status = types.StatusDraft
		st.ModNotes = *p.ModNotes
		if err := e.campaigns.Update(st); err != nil {
			return err
		}

	case ActionWithdraw:
		st := t.state
		st.Status = types.StatusDraft
		if err := e.campaigns.Update(st); err != nil {
			return err
		}

	case ActionFund:
		st := t.state
		st.Status = types.StatusFunded
		if t.reducedTimeUnits != nil {
			st.TimeUnits = *t.reducedTimeUnits
		}
		if t.overrideReject {
			st.ModNotes = ""
		}
		if err := e.campaigns.Update(st); err != nil {
			return err
		}
	}

	blk.Record(op.CommunityID, op.AccountID, op.PostID, op.Action)
	return nil
}

// settingsChanges maps the present params onto settings columns; only
// fields carried by the op are written.
func settingsChanges(p Params) map[string]interface{} {
	changes := make(map[string]interface{})
	if p.Enabled != nil {
		changes["enabled"] = *p.Enabled
	}
	if p.Token != nil {
		changes["token"] = *p.Token
	}
	if p.Burn != nil {
		changes["burn"] = *p.Burn
	}
	if p.MinBid != nil {
		changes["min_bid"] = *p.MinBid
	}
	if p.MinTimeBid != nil {
		changes["min_time_bid"] = *p.MinTimeBid
	}
	if p.MaxTimeBid != nil {
		changes["max_time_bid"] = *p.MaxTimeBid
	}
	if p.MaxTimeActive != nil {
		changes["max_time_active"] = *p.MaxTimeActive
	}
	return changes
}
