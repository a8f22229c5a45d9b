package stagedetector

import (
	"testing"
	"time"

	"github.com/ignite/fleetwatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hoursAgo int) time.Time {
	return time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC).Add(-time.Duration(hoursAgo) * time.Hour)
}

func TestDetect_Registered_NoMessages(t *testing.T) {
	res := Detect(nil)
	assert.Equal(t, domain.StageRegistered, res.Stage)
}

func TestDetect_BGCCompleteNeedsBodyCheck(t *testing.T) {
	msgs := []MessageHeader{
		{ID: "1", Subject: "Your background check is complete", From: "noreply@checkr.com", Date: at(1)},
	}
	res := Detect(msgs)
	require.Len(t, res.NeedsBodyCheck, 1)
	assert.Equal(t, domain.StageBGCClear, res.Stage)

	stage := CheckBGCBody("Congratulations, you're all set to dash!")
	assert.Equal(t, domain.StageBGCClear, stage)
}

func TestDetect_BGCConsiderFromBody(t *testing.T) {
	stage, conf := CheckBGCBodyWithConfidence("This record could potentially impact your eligibility.")
	assert.Equal(t, domain.StageBGCConsider, stage)
	assert.Equal(t, domain.ConfidenceHigh, conf)
}

func TestDetect_DeactivationWinsOverEarlierActive(t *testing.T) {
	msgs := []MessageHeader{
		{ID: "1", Subject: "Payment processed for your last delivery", From: "no-reply@doordash.com", Date: at(48)},
		{ID: "2", Subject: "Your Dasher account has been deactivated", From: "no-reply@doordash.com", Date: at(1)},
	}
	res := Detect(msgs)
	assert.Equal(t, domain.StageDeactivated, res.Stage)
	assert.Equal(t, domain.ConfidenceHigh, res.Confidence)
}

func TestDetect_ReactivationFlipsBackToActive(t *testing.T) {
	msgs := []MessageHeader{
		{ID: "1", Subject: "Your Dasher account has been deactivated", From: "no-reply@doordash.com", Date: at(48)},
		{ID: "2", Subject: "Welcome back! Your account has been reactivated", From: "no-reply@doordash.com", Date: at(1)},
	}
	res := Detect(msgs)
	assert.Equal(t, domain.StageActive, res.Stage)
	assert.True(t, res.Reactivated)
}

func TestDetect_DeactivationIgnoredOnceReactivated(t *testing.T) {
	msgs := []MessageHeader{
		{ID: "1", Subject: "Welcome back! Your account has been reactivated", From: "no-reply@doordash.com", Date: at(48)},
		{ID: "2", Subject: "Your Dasher account has been deactivated", From: "no-reply@doordash.com", Date: at(1)},
	}
	res := Detect(msgs)
	assert.Equal(t, domain.StageActive, res.Stage, "once reactivated, later deactivation-shaped subjects must not win")
}

func TestDetect_BGCPendingRequiresVendorSender(t *testing.T) {
	msgs := []MessageHeader{
		{ID: "1", Subject: "Your background check is taking longer than expected", From: "updates@checkr.com", Date: at(1)},
	}
	res := Detect(msgs)
	assert.Equal(t, domain.StageBGCPending, res.Stage)

	nonVendor := []MessageHeader{
		{ID: "1", Subject: "Your background check is taking longer than expected", From: "random@example.com", Date: at(1)},
	}
	res2 := Detect(nonVendor)
	assert.Equal(t, domain.StageRegistered, res2.Stage)
}

func TestDetect_IdentityVerified(t *testing.T) {
	msgs := []MessageHeader{
		{ID: "1", Subject: "Your identity has been verified", From: "noreply@checkr.com", Date: at(1)},
	}
	res := Detect(msgs)
	assert.Equal(t, domain.StageIdentityVerified, res.Stage)
}

func TestDetect_HigherPriorityStageWinsRegardlessOfOrder(t *testing.T) {
	msgs := []MessageHeader{
		{ID: "1", Subject: "Your identity has been verified", From: "noreply@checkr.com", Date: at(10)},
		{ID: "2", Subject: "Your background check is complete", From: "noreply@checkr.com", Date: at(5)},
	}
	res := Detect(msgs)
	assert.Equal(t, domain.StageBGCClear, res.Stage)
}
