// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// OwnerResetRequestTable represents the 'owner.resetrequest' table.
//
// The current-OTP columns mirror the activity that issued the pending code.
type OwnerResetRequestTable struct {
	Table                string
	ID                   string
	RequestID            string
	UserID               string
	Role                 string
	Status               string
	CurrentOTPActivityID string
	CurrentOTP           string
	CurrentOTPIssuedAt   string
	CurrentOTPValidated  string
	Version              string
	CreatedAt            string
	UpdatedAt            string
}

// OwnerResetRequest is the schema definition for owner.resetrequest.
var OwnerResetRequest = OwnerResetRequestTable{
	Table:                "owner.resetrequest",
	ID:                   "id",
	RequestID:            "requestid",
	UserID:               "userid",
	Role:                 "role",
	Status:               "status",
	CurrentOTPActivityID: "currentotpactivityid",
	CurrentOTP:           "currentotp",
	CurrentOTPIssuedAt:   "currentotpissuedat",
	CurrentOTPValidated:  "currentotpvalidated",
	Version:              "version",
	CreatedAt:            "createdat",
	UpdatedAt:            "updatedat",
}

// Columns returns every column in scan order.
func (t OwnerResetRequestTable) Columns() []string {
	return []string{
		t.ID, t.RequestID, t.UserID, t.Role, t.Status, t.CurrentOTPActivityID,
		t.CurrentOTP, t.CurrentOTPIssuedAt, t.CurrentOTPValidated, t.Version,
		t.CreatedAt, t.UpdatedAt,
	}
}
