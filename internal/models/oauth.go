// Package models defines types shared across internal packages.
package models

import "time"

// TokenSet is the OAuth token triple held for an access key. The three
// fields always change together.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
}
