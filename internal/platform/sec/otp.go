// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// # One-Time Codes

const (
	otpMin   = 100000
	otpRange = 900000
)

// OTP is a 6-digit numeric one-time code together with its issuance time.
type OTP struct {
	Code     string
	IssuedAt time.Time
}

// GenerateOTP returns a uniformly random 6-digit code stamped with now.
func GenerateOTP(now time.Time) (OTP, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		return OTP{}, fmt.Errorf("sec: failed to generate otp: %w", err)
	}
	return OTP{Code: fmt.Sprintf("%06d", n.Int64()+otpMin), IssuedAt: now}, nil
}

// OTPExpired reports whether a code issued at issuedAt is past its window at now.
//
// Elapsed time is truncated to whole units, and a code whose elapsed units reach
// maxUnits is expired.
func OTPExpired(issuedAt, now time.Time, unit time.Duration, maxUnits int) bool {
	elapsed := int(now.Sub(issuedAt) / unit)
	return elapsed >= maxUnits
}
