// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// OwnerLoginAttemptTable represents the append-only 'owner.loginattempt' table.
type OwnerLoginAttemptTable struct {
	Table       string
	ID          string
	UserID      string
	AttemptedOn string
	Result      string
	Stage       string
	Remarks     string
	Metadata    string
}

// OwnerLoginAttempt is the schema definition for owner.loginattempt.
var OwnerLoginAttempt = OwnerLoginAttemptTable{
	Table:       "owner.loginattempt",
	ID:          "id",
	UserID:      "userid",
	AttemptedOn: "attemptedon",
	Result:      "result",
	Stage:       "stage",
	Remarks:     "remarks",
	Metadata:    "metadata",
}

// Columns returns the columns written on insert.
func (t OwnerLoginAttemptTable) Columns() []string {
	return []string{t.UserID, t.AttemptedOn, t.Result, t.Stage, t.Remarks, t.Metadata}
}
