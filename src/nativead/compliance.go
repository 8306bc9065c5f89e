package nativead

import (
	"github.com/shopspring/decimal"

	"github.com/hiveio/hive-ads/src/types"
)

// validateCompliance checks the op against community-level ad policy.
func (e *Engine) validateCompliance(t *Transition) error {
	op := t.op
	if op.Action == ActionUpdateSettings {
		return nil
	}

	// adReject, adFund and adWithdraw stay available after a community
	// disables ads, so existing commitments can be unwound or honored.
	switch op.Action {
	case ActionReject, ActionFund, ActionWithdraw:
	default:
		if !t.settings.Enabled {
			return complianceErrorf("community does not accept ads")
		}
	}

	switch op.Action {
	case ActionSubmit, ActionBid, ActionApprove:
		return e.checkBid(t)
	case ActionFund:
		return e.checkPayment(t)
	}
	return nil
}

// checkBid enforces bid bounds. Re-run at approval because community
// policy may have changed since submission; fields absent from the op
// fall back to the stored record.
func (e *Engine) checkBid(t *Transition) error {
	p := t.params
	ctx := t.settings

	var bidAmount decimal.Decimal
	switch {
	case p.BidAmount != nil:
		bidAmount = *p.BidAmount
	case t.state != nil:
		bidAmount = t.state.BidAmount
	default:
		return complianceErrorf("missing bid_amount for ad")
	}
	if !bidAmount.IsPositive() {
		return complianceErrorf("bid amount must be greater than zero (0)")
	}

	var timeUnits int32
	switch {
	case p.TimeUnits != nil:
		timeUnits = *p.TimeUnits
	case t.state != nil:
		timeUnits = t.state.TimeUnits
	}
	if timeUnits <= 0 {
		return complianceErrorf("time units must be greater than zero (0)")
	}

	if p.BidToken != nil && *p.BidToken != ctx.Token {
		return complianceErrorf("token not accepted as payment in community")
	}

	if ctx.MinBid != nil && bidAmount.LessThan(*ctx.MinBid) {
		return complianceErrorf("bid amount (%s) is less than community minimum (%s)",
			bidAmount, ctx.MinBid)
	}
	if ctx.MinTimeBid != nil && timeUnits < *ctx.MinTimeBid {
		return complianceErrorf("the community accepts a minimum of (%d) time units per bid; you entered (%d)",
			*ctx.MinTimeBid, timeUnits)
	}
	if ctx.MaxTimeBid != nil && timeUnits > *ctx.MaxTimeBid {
		return complianceErrorf("the community accepts a maximum of (%d) time units per bid; you entered (%d)",
			*ctx.MaxTimeBid, timeUnits)
	}

	if ctx.MaxTimeActive != nil {
		active, err := e.campaigns.ActiveTimeUnits(t.op.CommunityID, t.op.AccountID)
		if err != nil {
			return err
		}
		total := active + int64(timeUnits)
		if total > int64(*ctx.MaxTimeActive) {
			return complianceErrorf("total active time units (%d) will exceed community's maximum allowed (%d)",
				total, *ctx.MaxTimeActive)
		}
	}

	return nil
}

// checkPayment validates an adFund against the approved bid: payment
// window, token, destination and amount. Underpayment reduces the
// allocated time pro-rata instead of failing.
func (e *Engine) checkPayment(t *Transition) error {
	p := t.params
	ctx := t.settings

	if e.adTimedOut(t) {
		return complianceErrorf("ad payment is late; contact community management to resolve the issue")
	}

	if *p.Token != ctx.Token {
		return complianceErrorf("wrong token sent for ad payment; expected %s", ctx.Token)
	}

	if t.op.ToAccount != "" {
		if ctx.Burn {
			if t.op.ToAccount != "null" {
				return complianceErrorf("community only accepts burn payments for ads; " +
					"contact community management to resolve the issue")
			}
		} else if t.op.ToAccount != t.op.CommunityName {
			return complianceErrorf("tokens sent to wrong account, expected (@%s)", t.op.CommunityName)
		}
	}

	expected := t.state.BidAmount
	sent := *p.Amount
	if sent.LessThan(expected) {
		// new_time_units = floor(sent / (bid / units)) = floor(sent * units / bid)
		units := decimal.NewFromInt(int64(t.state.TimeUnits))
		reduced := int32(sent.Mul(units).Div(expected).IntPart())
		t.reducedTimeUnits = &reduced
	}

	return nil
}

// activeInterval is the closed slot an active campaign occupies.
func activeInterval(st types.AdState) (start, end int64, ok bool) {
	if st.StartTime == nil {
		return 0, 0, false
	}
	s := st.StartTime.Unix()
	return s, s + int64(st.TimeUnits)*60, true
}
