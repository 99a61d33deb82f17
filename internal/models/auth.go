package models

import "github.com/golang-jwt/jwt/v5"

// TokenTypeReset marks single-purpose password-reset tokens. Access and
// refresh tokens deliberately carry no type claim; their payload shape is
// fixed at {sub, roles, exp} for interop with external consumers.
const TokenTypeReset = "reset"

// TokenClaims is the JWT payload for every token this service signs.
// Subject and expiry live in the embedded RegisteredClaims; unused
// registered fields stay zero so they never appear on the wire.
// Roles uses omitzero, not omitempty: a role-less account still signs
// `"roles": []`, while reset tokens (nil) carry no roles claim at all.
type TokenClaims struct {
	Roles []string `json:"roles,omitzero"`
	Type  string   `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// LoginResult is what a completed (or MFA-interrupted) login returns.
// When MFARequired is set, no tokens have been issued yet and the client
// must complete the emailed-code challenge for UserID.
type LoginResult struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	MFARequired  bool   `json:"mfaRequired,omitempty"`
	UserID       string `json:"userId,omitempty"`
}

// MFASetup is the fixed response of the enable-MFA operation. The field
// names predate the emailed-code design; Secret is always "EMAIL_MFA" and
// QRCodeURL is always empty because no TOTP secret exists.
type MFASetup struct {
	Secret    string `json:"secret"`
	QRCodeURL string `json:"qrCodeUrl"`
}
