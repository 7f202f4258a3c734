// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, JWT signing, one-time
// codes, TOTP) from the domain logic. It acts as an Infrastructure service injected
// into the Application layer via small interfaces declared by the consumers.
package sec

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/ownerauth/internal/platform/constants"
)

// OwnerClaims represents the payload embedded inside owner access and refresh tokens.
//
// Partially verified sessions still receive tokens; IsValidated and ToBeValidated
// tell downstream consumers which gate is outstanding.
type OwnerClaims struct {
	jwt.RegisteredClaims

	UserID        string `json:"uid"`
	Type          string `json:"type"`
	Role          string `json:"role"`
	Is2FAEnabled  bool   `json:"is_2fa_enabled"`
	IsValidated   bool   `json:"is_validated"`
	ToBeValidated string `json:"to_be_validated"`
	Use           string `json:"use"`
}

// UserRole returns the typed role carried by the claims.
func (claims *OwnerClaims) UserRole() UserRole {
	return UserRole(claims.Role)
}

// TokenSubject is the identity and gate state encoded into a token pair.
type TokenSubject struct {
	UserID        string
	Role          UserRole
	Is2FAEnabled  bool
	IsValidated   bool
	ToBeValidated string
}

// TokenPair is the access/refresh pair returned by every gate evaluation.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// ErrWrongTokenUse is returned when a refresh token is presented as an access token or vice versa.
var ErrWrongTokenUse = errors.New("sec: token used for the wrong purpose")

// TokenService handles generation and verification of JWT tokens using RS256.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a new TokenService.
// It reads RSA keys from the provided filesystem paths.
func NewTokenService(privateKeyPath, publicKeyPath, issuer string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	privateKeyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read private key from %s: %w", privateKeyPath, err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse private key: %w", err)
	}

	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read public key from %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse public key: %w", err)
	}

	return NewTokenServiceFromKeys(privateKey, publicKey, issuer, accessTTL, refreshTTL), nil
}

// NewTokenServiceFromKeys creates a TokenService from already parsed keys.
func NewTokenServiceFromKeys(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, issuer string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssuePair signs a short-lived access token and a long-lived refresh token for subject.
func (service *TokenService) IssuePair(subject TokenSubject) (*TokenPair, error) {
	accessToken, err := service.sign(subject, constants.TokenUseAccess, service.accessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := service.sign(subject, constants.TokenUseRefresh, service.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(service.accessTTL.Seconds()),
	}, nil
}

// sign builds and signs one token of the given use.
func (service *TokenService) sign(subject TokenSubject, use string, timeToLive time.Duration) (string, error) {
	currentTime := service.now()
	claims := OwnerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.UserID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:        subject.UserID,
		Type:          constants.TokenTypeOwner,
		Role:          string(subject.Role),
		Is2FAEnabled:  subject.Is2FAEnabled,
		IsValidated:   subject.IsValidated,
		ToBeValidated: subject.ToBeValidated,
		Use:           use,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(service.privateKey)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature and validity of an access token.
func (service *TokenService) VerifyToken(tokenString string) (*OwnerClaims, error) {
	return service.verify(tokenString, constants.TokenUseAccess)
}

// VerifyRefreshToken checks the signature and validity of a refresh token.
func (service *TokenService) VerifyRefreshToken(tokenString string) (*OwnerClaims, error) {
	return service.verify(tokenString, constants.TokenUseRefresh)
}

// verify parses tokenString and enforces issuer, owner type and token use.
func (service *TokenService) verify(tokenString, use string) (*OwnerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OwnerClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.publicKey, nil
	}, jwt.WithIssuer(service.issuer), jwt.WithTimeFunc(service.now))

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*OwnerClaims)
	if !ok || !token.Valid || claims.Type != constants.TokenTypeOwner {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	if claims.Use != use {
		return nil, ErrWrongTokenUse
	}

	return claims, nil
}
