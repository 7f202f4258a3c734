// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package schema holds the column maps of the relational store.

Stores build their SQL from these maps so a column rename touches one file.
*/
package schema

// OwnerAccountTable represents the 'owner.account' table.
type OwnerAccountTable struct {
	Table              string
	ID                 string
	FirstName          string
	LastName           string
	Email              string
	Phone              string
	PasswordHash       string
	Role               string
	Avatar             string
	Status             string
	EmailValidated     string
	EmailOTP           string
	EmailOTPIssuedAt   string
	PhoneValidated     string
	PhoneOTP           string
	PhoneOTPIssuedAt   string
	TOTPSecret         string
	TOTPURL            string
	TwoFactorValidated string
	Provisioned        string
	CreatedBy          string
	CreatedAt          string
	UpdatedAt          string
}

// OwnerAccount is the schema definition for owner.account.
var OwnerAccount = OwnerAccountTable{
	Table:              "owner.account",
	ID:                 "id",
	FirstName:          "firstname",
	LastName:           "lastname",
	Email:              "email",
	Phone:              "phone",
	PasswordHash:       "passwordhash",
	Role:               "role",
	Avatar:             "avatar",
	Status:             "status",
	EmailValidated:     "emailvalidated",
	EmailOTP:           "emailotp",
	EmailOTPIssuedAt:   "emailotpissuedat",
	PhoneValidated:     "phonevalidated",
	PhoneOTP:           "phoneotp",
	PhoneOTPIssuedAt:   "phoneotpissuedat",
	TOTPSecret:         "totpsecret",
	TOTPURL:            "totpurl",
	TwoFactorValidated: "twofactorvalidated",
	Provisioned:        "provisioned",
	CreatedBy:          "createdby",
	CreatedAt:          "createdat",
	UpdatedAt:          "updatedat",
}

// Columns returns every column in scan order.
func (t OwnerAccountTable) Columns() []string {
	return []string{
		t.ID, t.FirstName, t.LastName, t.Email, t.Phone, t.PasswordHash, t.Role,
		t.Avatar, t.Status, t.EmailValidated, t.EmailOTP, t.EmailOTPIssuedAt,
		t.PhoneValidated, t.PhoneOTP, t.PhoneOTPIssuedAt, t.TOTPSecret, t.TOTPURL,
		t.TwoFactorValidated, t.Provisioned, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	}
}
