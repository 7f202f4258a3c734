// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reset_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/ownerauth/internal/users/reset"
)

/*
TestCanTransition walks the legal and illegal moves of the activity log.
*/
func TestCanTransition(t *testing.T) {
	tests := []struct {
		latest reset.ActivityType
		next   reset.ActivityType
		want   bool
	}{
		{reset.ActivityRequested, reset.ActivityApproved, true},
		{reset.ActivityRequested, reset.ActivityRejected, true},
		{reset.ActivityRequested, reset.ActivityRequestedNewOTP, false},
		{reset.ActivityRequested, reset.ActivityValidationSuccess, false},
		{reset.ActivityApproved, reset.ActivityApproved, false},
		{reset.ActivityApproved, reset.ActivityValidationSuccess, true},
		{reset.ActivityApproved, reset.ActivityValidationFailed, true},
		{reset.ActivityApproved, reset.ActivityRequestedNewOTP, true},
		{reset.ActivityApproved, reset.ActivitySuccessfullyUpdated, false},
		{reset.ActivityValidationFailed, reset.ActivityValidationSuccess, true},
		{reset.ActivityValidationFailed, reset.ActivityRequestedNewOTP, true},
		{reset.ActivityRequestedNewOTP, reset.ActivityValidationSuccess, true},
		{reset.ActivityValidationSuccess, reset.ActivityRequestedNewOTP, false},
		{reset.ActivityValidationSuccess, reset.ActivityValidationFailed, false},
		{reset.ActivityValidationSuccess, reset.ActivitySuccessfullyUpdated, true},
		{reset.ActivityValidationSuccess, reset.ActivityWithdrawn, true},
		{reset.ActivityRequested, reset.ActivityWithdrawn, true},
		{"", reset.ActivityWithdrawn, false},
		{reset.ActivityRequested, reset.ActivityRequested, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.latest)+"->"+string(tt.next), func(t *testing.T) {
			assert.Equal(t, tt.want, reset.CanTransition(tt.latest, tt.next))
		})
	}
}

/*
TestRequest_LatestRejection only reports a rejection when it is the final activity.
*/
func TestRequest_LatestRejection(t *testing.T) {
	rejectedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	request := &reset.Request{Activities: []reset.Activity{
		{Type: reset.ActivityRequested},
		{Type: reset.ActivityRejected, CreatedAt: rejectedAt},
	}}
	at, ok := request.LatestRejection()
	assert.True(t, ok)
	assert.Equal(t, rejectedAt, at)

	withdrawn := &reset.Request{Activities: []reset.Activity{
		{Type: reset.ActivityRequested},
		{Type: reset.ActivityWithdrawn},
	}}
	_, ok = withdrawn.LatestRejection()
	assert.False(t, ok)

	assert.Equal(t, reset.ActivityType(""), (&reset.Request{}).Latest())
}
