// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// OwnerResetActivityTable represents the append-only 'owner.resetactivity' table.
type OwnerResetActivityTable struct {
	Table        string
	ID           string
	RequestID    string
	Seq          string
	ActivityType string
	ActivityBy   string
	UserID       string
	OTP          string
	OTPIssuedAt  string
	OTPValidated string
	Remarks      string
	CreatedAt    string
}

// OwnerResetActivity is the schema definition for owner.resetactivity.
var OwnerResetActivity = OwnerResetActivityTable{
	Table:        "owner.resetactivity",
	ID:           "id",
	RequestID:    "requestid",
	Seq:          "seq",
	ActivityType: "activitytype",
	ActivityBy:   "activityby",
	UserID:       "userid",
	OTP:          "otp",
	OTPIssuedAt:  "otpissuedat",
	OTPValidated: "otpvalidated",
	Remarks:      "remarks",
	CreatedAt:    "createdat",
}

// Columns returns every column in scan order.
func (t OwnerResetActivityTable) Columns() []string {
	return []string{
		t.ID, t.RequestID, t.Seq, t.ActivityType, t.ActivityBy, t.UserID,
		t.OTP, t.OTPIssuedAt, t.OTPValidated, t.Remarks, t.CreatedAt,
	}
}
