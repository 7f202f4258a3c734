// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// # Time-Based Two-Factor

const (
	totpSecretSize = 20
	totpPeriod     = 30
	totpSkew       = 1
)

// TOTPSecret is the per-user shared secret and its provisioning URL.
type TOTPSecret struct {
	// Base32 is the secret in the encoding authenticator apps expect.
	Base32 string
	// URL is the otpauth:// URL rendered as a QR code by clients.
	URL string
}

// GenerateTOTPSecret creates a new secret for account under issuer.
func GenerateTOTPSecret(issuer, account string) (TOTPSecret, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		SecretSize:  totpSecretSize,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return TOTPSecret{}, fmt.Errorf("sec: failed to generate totp secret: %w", err)
	}
	return TOTPSecret{Base32: key.Secret(), URL: key.URL()}, nil
}

// ValidateTOTP checks code against secret at the given instant, tolerating one step of skew.
func ValidateTOTP(code, secret string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at.UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
