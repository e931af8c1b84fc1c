package models

import "time"

// Account is a proxy user, identified by the login source and screen name
// (the EVE character name for source "eve").
type Account struct {
	ID         int64     `json:"uid"`
	Source     string    `json:"source"`
	ScreenName string    `json:"screenName"`
	Admin      bool      `json:"admin"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created"`
	LastLogin  time.Time `json:"last"`
}

// PendingAuth bridges a new-key request to the SSO callback that completes
// it. It only ever lives in memory.
type PendingAuth struct {
	CreatedAt  time.Time
	AccountID  int64
	Expiry     time.Time
	ServerType ServerType
	Scopes     string
}
