package nativead

import (
	"encoding/json"

	"github.com/hiveio/hive-ads/src/types"
)

// adMetadata is the native_ad declaration inside a post's JSON
// metadata.
type adMetadata struct {
	Type       string          `json:"type"`
	Properties json.RawMessage `json:"properties"`
}

// extractAdMetadata pulls a well-formed native_ad declaration out of
// post metadata; nil when the post is not declaring an ad.
func extractAdMetadata(rawJSON []byte) *adMetadata {
	var meta struct {
		NativeAd *adMetadata `json:"native_ad"`
	}
	if err := json.Unmarshal(rawJSON, &meta); err != nil || meta.NativeAd == nil {
		return nil
	}
	ad := meta.NativeAd
	if ad.Type == "" || len(ad.Type) > 16 {
		return nil
	}
	// properties must be a JSON object
	var props map[string]interface{}
	if err := json.Unmarshal(ad.Properties, &props); err != nil {
		return nil
	}
	return ad
}

// RegisterAdPost maintains the ad registry from post create/edit
// events. The caller feeds it declined posts only (an ad post opts
// out of rewards). Posts without valid native_ad metadata are
// ignored. Edits are ignored once the ad has any per-community state
// past draft, so a running campaign's creative cannot change out from
// under its community.
func (e *Engine) RegisterAdPost(postID, accountID uint64, rawJSON []byte, isNew bool) error {
	meta := extractAdMetadata(rawJSON)
	if meta == nil {
		return nil
	}

	ad := &types.Ad{
		PostID:     postID,
		AccountID:  accountID,
		Type:       meta.Type,
		Properties: string(meta.Properties),
	}

	if isNew {
		return e.ads.Insert(ad)
	}

	statuses, err := e.campaigns.Statuses(postID)
	if err != nil {
		return err
	}
	for _, s := range statuses {
		if s > types.StatusDraft {
			return nil
		}
	}

	known, err := e.ads.Has(postID)
	if err != nil {
		return err
	}
	if !known {
		return nil
	}
	return e.ads.Update(ad)
}
