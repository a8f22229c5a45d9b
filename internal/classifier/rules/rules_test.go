package rules

import (
	"testing"

	"github.com/ignite/fleetwatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Deactivation(t *testing.T) {
	cl, needsAI := Classify("Your Dasher account has been deactivated", "no-reply@doordash.com", "")
	require.False(t, needsAI)
	assert.Equal(t, "account", cl.Category)
	assert.Equal(t, "deactivation", cl.SubCategory)
	assert.Equal(t, 1.0, cl.Confidence)
	assert.Equal(t, domain.UrgencyCritical, cl.Urgency)
	assert.True(t, cl.ActionRequired)
	assert.Equal(t, domain.SourceRules, cl.Source)
}

func TestClassify_BGCCompleteClear(t *testing.T) {
	cl, needsAI := Classify("Your background check is complete", "checkr@checkr.com", "Everything looks good.")
	require.False(t, needsAI)
	assert.Equal(t, "bgc", cl.Category)
	assert.Equal(t, "clear", cl.SubCategory)
}

func TestClassify_BGCCompleteConsider(t *testing.T) {
	cl, needsAI := Classify("Your background check is complete", "checkr@checkr.com",
		"We found a record that could potentially impact your eligibility.")
	require.False(t, needsAI)
	assert.Equal(t, "bgc", cl.Category)
	assert.Equal(t, "consider", cl.SubCategory)
	assert.Equal(t, domain.UrgencyHigh, cl.Urgency)
}

func TestClassify_CheckrPending(t *testing.T) {
	cl, needsAI := Classify("Your background check is taking longer than expected", "support@checkr.com", "")
	require.False(t, needsAI)
	assert.Equal(t, "bgc", cl.Category)
	assert.Equal(t, "pending", cl.SubCategory)
}

func TestClassify_Reactivation(t *testing.T) {
	cl, needsAI := Classify("Your Dasher account has been reactivated", "no-reply@doordash.com", "")
	require.False(t, needsAI)
	assert.Equal(t, "reactivation", cl.SubCategory)
}

func TestClassify_WeeklyPay(t *testing.T) {
	cl, needsAI := Classify("Your weekly pay statement is ready", "no-reply@doordash.com", "")
	require.False(t, needsAI)
	assert.Equal(t, "earnings", cl.Category)
	assert.Equal(t, "weekly_pay", cl.SubCategory)
}

func TestClassify_DoorDashCatchall(t *testing.T) {
	cl, needsAI := Classify("Some completely unrelated subject line", "no-reply@doordash.com", "")
	require.False(t, needsAI)
	assert.Equal(t, "unknown", cl.Category)
	assert.Equal(t, "needs_review", cl.SubCategory)
	assert.Equal(t, 0.5, cl.Confidence)
}

func TestClassify_NoMatchNeedsAI(t *testing.T) {
	_, needsAI := Classify("Totally unrelated subject", "someone@example.com", "")
	assert.True(t, needsAI)
}

func TestClassify_ActivationNotConfusedWithDeactivation(t *testing.T) {
	cl, needsAI := Classify("Your account has been activated", "no-reply@doordash.com", "")
	require.False(t, needsAI)
	assert.Equal(t, "activation", cl.SubCategory)
}

func TestClassify_RatingWarningBeatsRatingUpdate(t *testing.T) {
	cl, needsAI := Classify("Rating warning: you are at risk", "no-reply@doordash.com", "")
	require.False(t, needsAI)
	assert.Equal(t, "warning", cl.Category)
	assert.Equal(t, "low_rating_warning", cl.SubCategory)
}
