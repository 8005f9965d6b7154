package farcaster

import "time"

// Cast is a single Farcaster cast (post or reply). Casts are sourced
// externally and immutable once fetched.
type Cast struct {
	Hash       string    `json:"hash"`
	ParentHash string    `json:"parent_hash,omitempty"`
	Author     Profile   `json:"author"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

// Profile is a Farcaster user identity.
type Profile struct {
	FID         uint64 `json:"fid"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

// CastRef identifies a cast that was just published.
type CastRef struct {
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
}

// ParentRef identifies the cast a reply is attached to.
type ParentRef struct {
	FID  uint64 `json:"fid"`
	Hash string `json:"hash"`
}
