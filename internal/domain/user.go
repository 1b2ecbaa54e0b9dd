package domain

import "time"

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	Email        string
	Avatar       string
	PasswordHash string
	IsAdmin      bool
	ResetToken   *string
	ResetExpires *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ResetState is the lifecycle position of a password reset token.
type ResetState string

const (
	// ResetStateNone means no reset was ever requested, or a previous one was redeemed.
	ResetStateNone     ResetState = "none"
	ResetStateIssued   ResetState = "issued"
	ResetStateExpired  ResetState = "expired"
	ResetStateRedeemed ResetState = "redeemed"
)

// ResetState reports where the user's reset token sits at the given instant.
// A token is only usable while Issued: its expiry must be strictly after now.
func (u *User) ResetState(now time.Time) ResetState {
	if u.ResetToken == nil || *u.ResetToken == "" {
		return ResetStateNone
	}
	if u.ResetExpires == nil || !u.ResetExpires.After(now) {
		return ResetStateExpired
	}
	return ResetStateIssued
}

// IssueReset stores a fresh token that expires after ttl.
func (u *User) IssueReset(token string, now time.Time, ttl time.Duration) {
	expires := now.Add(ttl)
	u.ResetToken = &token
	u.ResetExpires = &expires
}

// RedeemReset clears the token and its expiry together.
func (u *User) RedeemReset() ResetState {
	u.ResetToken = nil
	u.ResetExpires = nil
	return ResetStateRedeemed
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// Identity is the authenticated caller as resolved from the session.
type Identity struct {
	UserID   int64
	Username string
	IsAdmin  bool
}

// Profile is the public view of a user together with their listings.
type Profile struct {
	User        User
	Campgrounds []Campground
}
