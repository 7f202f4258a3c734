// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "github.com/taibuivan/ownerauth/internal/platform/sec"

// # Verification Gates

// Gate names a verification step; it is the value of the 'to_be_validated' claim.
type Gate string

const (
	GateNone  Gate = ""
	GateEmail Gate = "email"
	GatePhone Gate = "phone"
	Gate2FA   Gate = "2fa"
)

// GateSnapshot is the validation state the gate order is evaluated against.
//
// TwoFactorPassed is per session: only a TOTP check performed in the current
// request satisfies it, whatever the stored enrolment says.
type GateSnapshot struct {
	EmailValidated  bool
	PhoneValidated  bool
	TwoFactorPassed bool
}

// GateDecision is the outcome of evaluating a snapshot.
type GateDecision struct {
	IsValidated bool
	Next        Gate
}

// NextGate returns the first unmet gate in the fixed order email, phone, 2fa.
func NextGate(snapshot GateSnapshot) GateDecision {
	switch {
	case !snapshot.EmailValidated:
		return GateDecision{Next: GateEmail}
	case !snapshot.PhoneValidated:
		return GateDecision{Next: GatePhone}
	case !snapshot.TwoFactorPassed:
		return GateDecision{Next: Gate2FA}
	default:
		return GateDecision{IsValidated: true, Next: GateNone}
	}
}

// Snapshot captures the stored channel flags of user for a session that has not
// yet presented a TOTP code.
func (user *User) Snapshot() GateSnapshot {
	return GateSnapshot{
		EmailValidated: user.EmailCheck.Validated,
		PhoneValidated: user.PhoneCheck.Validated,
	}
}

// tokenSubject builds the claims of a token pair from user and the current decision.
func (user *User) tokenSubject(decision GateDecision) sec.TokenSubject {
	return sec.TokenSubject{
		UserID:        user.ID,
		Role:          user.Role,
		Is2FAEnabled:  user.TwoFactor.Validated,
		IsValidated:   decision.IsValidated,
		ToBeValidated: string(decision.Next),
	}
}
