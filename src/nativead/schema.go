package nativead

import (
	"encoding/json"
	"math"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// Ad operation actions as they appear in decoded custom_json payloads.
type Action string

const (
	ActionSubmit         Action = "adSubmit"
	ActionBid            Action = "adBid"
	ActionApprove        Action = "adApprove"
	ActionReject         Action = "adReject"
	ActionWithdraw       Action = "adWithdraw"
	ActionFund           Action = "adFund"
	ActionUpdateSettings Action = "updateAdsSettings"
)

// maxTimeUnits is the SQL signed int ceiling.
const maxTimeUnits = 2147483647

var allowedKeys = map[Action][]string{
	ActionSubmit:   {"time_units", "start_time", "bid_amount", "bid_token"},
	ActionBid:      {"time_units", "start_time", "bid_amount", "bid_token"},
	ActionApprove:  {"start_time", "mod_notes"},
	ActionReject:   {"mod_notes"},
	ActionWithdraw: {},
	ActionFund:     {"amount", "token"},
	ActionUpdateSettings: {"enabled", "token", "burn", "min_bid",
		"min_time_bid", "max_time_bid", "max_time_active"},
}

var requiredKeys = map[Action][]string{
	ActionSubmit:         {"time_units", "bid_amount", "bid_token"},
	ActionBid:            {"bid_amount", "bid_token"},
	ActionApprove:        {"mod_notes"},
	ActionReject:         {"mod_notes"},
	ActionWithdraw:       {},
	ActionFund:           {"amount", "token"},
	ActionUpdateSettings: {},
}

// Token symbols: plain currency symbol or NAI literal (@@ + 9 digits).
var (
	symbolRe = regexp.MustCompile(`^[A-Z]{1,10}$`)
	naiRe    = regexp.MustCompile(`^@@\d{9}$`)
)

func validToken(s string) bool {
	return symbolRe.MatchString(s) || naiRe.MatchString(s)
}

// Params holds the typed fields of a validated ad op. Nil pointers
// mean the key was absent from the payload.
type Params struct {
	TimeUnits *int32
	StartTime *time.Time
	BidAmount *decimal.Decimal
	BidToken  *string
	ModNotes  *string

	// adFund
	Amount *decimal.Decimal
	Token  *string

	// updateAdsSettings
	Enabled       *bool
	Burn          *bool
	MinBid        *decimal.Decimal
	MinTimeBid    *int32
	MaxTimeBid    *int32
	MaxTimeActive *int32
}

// ParseParams validates the raw payload of an ad op against the
// allow/required key tables and per-field types. It is side-effect
// free and must run before any store access.
func ParseParams(action Action, raw map[string]interface{}) (Params, error) {
	var p Params

	allowed, ok := allowedKeys[action]
	if !ok {
		return p, schemaErrorf("unsupported ad action: %s", action)
	}

	var unsupported []string
	for k := range raw {
		if !contains(allowed, k) {
			unsupported = append(unsupported, k)
		}
	}
	if len(unsupported) > 0 {
		return p, schemaErrorf("unsupported keys provided for %s op: %v", action, unsupported)
	}

	var missing []string
	for _, k := range requiredKeys[action] {
		if _, present := raw[k]; !present {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return p, schemaErrorf("missing keys for %s op: %v", action, missing)
	}

	if action == ActionUpdateSettings && len(raw) == 0 {
		return p, schemaErrorf("no native ad settings provided")
	}

	var err error
	switch action {
	case ActionSubmit, ActionBid:
		if p.TimeUnits, err = intField(raw, "time_units", "time units"); err != nil {
			return p, err
		}
		if p.TimeUnits != nil && int64(*p.TimeUnits) >= maxTimeUnits {
			return p, schemaErrorf("time units must be less than %d", maxTimeUnits)
		}
		if p.StartTime, err = dateField(raw, "start_time"); err != nil {
			return p, err
		}
		if p.BidAmount, err = decimalField(raw, "bid_amount", "bid_amount"); err != nil {
			return p, err
		}
		if p.BidToken, err = tokenField(raw, "bid_token"); err != nil {
			return p, err
		}

	case ActionApprove:
		if p.StartTime, err = dateField(raw, "start_time"); err != nil {
			return p, err
		}
		if p.ModNotes, err = stringField(raw, "mod_notes", "mod notes"); err != nil {
			return p, err
		}

	case ActionReject:
		if p.ModNotes, err = stringField(raw, "mod_notes", "mod notes"); err != nil {
			return p, err
		}

	case ActionFund:
		if p.Amount, err = decimalField(raw, "amount", "amount"); err != nil {
			return p, err
		}
		if p.Token, err = tokenField(raw, "token"); err != nil {
			return p, err
		}

	case ActionUpdateSettings:
		if p.Enabled, err = boolField(raw, "enabled"); err != nil {
			return p, err
		}
		if p.Token, err = tokenField(raw, "token"); err != nil {
			return p, err
		}
		if p.Burn, err = boolField(raw, "burn"); err != nil {
			return p, err
		}
		if p.MinBid, err = decimalField(raw, "min_bid", "minimum bid"); err != nil {
			return p, err
		}
		if p.MinTimeBid, err = intField(raw, "min_time_bid", "minimum time units per bid"); err != nil {
			return p, err
		}
		if p.MaxTimeBid, err = intField(raw, "max_time_bid", "maximum time units per bid"); err != nil {
			return p, err
		}
		if p.MaxTimeActive, err = intField(raw, "max_time_active", "maximum active time units"); err != nil {
			return p, err
		}
	}

	return p, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func intField(raw map[string]interface{}, key, label string) (*int32, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	var n int64
	switch t := v.(type) {
	case int:
		n = int64(t)
	case int32:
		n = int64(t)
	case int64:
		n = t
	case float64:
		if t != math.Trunc(t) {
			return nil, schemaErrorf("%s must be integers", label)
		}
		n = int64(t)
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return nil, schemaErrorf("%s must be integers", label)
		}
		n = i
	default:
		return nil, schemaErrorf("%s must be integers", label)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, schemaErrorf("%s out of range: %d", label, n)
	}
	out := int32(n)
	return &out, nil
}

func decimalField(raw map[string]interface{}, key, label string) (*decimal.Decimal, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	var d decimal.Decimal
	switch t := v.(type) {
	case decimal.Decimal:
		d = t
	case float64:
		d = decimal.NewFromFloat(t)
	case int:
		d = decimal.NewFromInt(int64(t))
	case int64:
		d = decimal.NewFromInt(t)
	case json.Number:
		parsed, err := decimal.NewFromString(t.String())
		if err != nil {
			return nil, schemaErrorf("%s must be a decimal number", label)
		}
		d = parsed
	default:
		return nil, schemaErrorf("%s must be a decimal number", label)
	}
	return &d, nil
}

func boolField(raw map[string]interface{}, key string) (*bool, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, schemaErrorf("the '%s' property must be a boolean", key)
	}
	return &b, nil
}

func stringField(raw map[string]interface{}, key, label string) (*string, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, schemaErrorf("%s must be a string", label)
	}
	return &s, nil
}

func tokenField(raw map[string]interface{}, key string) (*string, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok || !validToken(s) {
		return nil, schemaErrorf("invalid token entered: %v", v)
	}
	return &s, nil
}

// dateField accepts ISO-8601 timestamps, with or without zone.
func dateField(raw map[string]interface{}, key string) (*time.Time, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, schemaErrorf("%s must be an ISO-8601 date string", key)
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, schemaErrorf("invalid date string: %s", s)
}
