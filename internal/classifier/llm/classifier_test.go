package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeTransport) Complete(_ context.Context, _, _ string) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("fakeTransport: out of responses")
}

func TestClassify_SuccessFirstAttempt(t *testing.T) {
	ft := &fakeTransport{responses: []string{
		`{"category":"earnings","sub_category":"weekly_pay","summary":"pay","urgency":"low","action_required":false}`,
	}}
	c := New(ft)

	resp, err := c.Classify(context.Background(), Request{Subject: "s", Sender: "sndr"})
	require.NoError(t, err)
	assert.Equal(t, "earnings", resp.Category)
	assert.Equal(t, 1, ft.calls)
}

func TestClassify_MarkdownFencedJSON(t *testing.T) {
	ft := &fakeTransport{responses: []string{
		"```json\n{\"category\":\"bgc\",\"sub_category\":\"clear\",\"summary\":\"ok\",\"urgency\":\"medium\",\"action_required\":false}\n```",
	}}
	c := New(ft)

	resp, err := c.Classify(context.Background(), Request{Subject: "s", Sender: "sndr"})
	require.NoError(t, err)
	assert.Equal(t, "bgc", resp.Category)
}

func TestClassify_ProseAroundJSON(t *testing.T) {
	ft := &fakeTransport{responses: []string{
		"Sure, here you go: {\"category\":\"account\",\"sub_category\":\"welcome\",\"summary\":\"hi\",\"urgency\":\"info\",\"action_required\":false} hope that helps!",
	}}
	c := New(ft)

	resp, err := c.Classify(context.Background(), Request{Subject: "s", Sender: "sndr"})
	require.NoError(t, err)
	assert.Equal(t, "account", resp.Category)
}

func TestClassify_RetriesOnFailureThenSucceeds(t *testing.T) {
	ft := &fakeTransport{
		errs: []error{errors.New("timeout"), nil},
		responses: []string{
			"",
			`{"category":"warning","sub_category":"contract_violation","summary":"x","urgency":"critical","action_required":true}`,
		},
	}
	c := New(ft)

	resp, err := c.Classify(context.Background(), Request{Subject: "s", Sender: "sndr"})
	require.NoError(t, err)
	assert.Equal(t, "warning", resp.Category)
	assert.Equal(t, 2, ft.calls)
}

func TestClassify_ExhaustsAllAttemptsOnMalformedJSON(t *testing.T) {
	ft := &fakeTransport{responses: []string{"not json", "still not json", "nope"}}
	c := New(ft)

	_, err := c.Classify(context.Background(), Request{Subject: "s", Sender: "sndr"})
	require.Error(t, err)
	assert.Equal(t, maxAttempts, ft.calls)
}

func TestClassify_MissingFieldsFilledWithDefaults(t *testing.T) {
	ft := &fakeTransport{responses: []string{
		`{"category":"account"}`,
	}}
	c := New(ft)

	resp, err := c.Classify(context.Background(), Request{Subject: "s", Sender: "sndr"})
	require.NoError(t, err)
	assert.Equal(t, 1, ft.calls)
	assert.Equal(t, "account", resp.Category)
	assert.Equal(t, "unclassified", resp.SubCategory)
	assert.Equal(t, "", resp.Summary)
	assert.Equal(t, "info", resp.Urgency)
	assert.False(t, resp.ActionRequired)
}

func TestClassify_AllFieldsMissingFilledWithDefaults(t *testing.T) {
	ft := &fakeTransport{responses: []string{`{}`}}
	c := New(ft)

	resp, err := c.Classify(context.Background(), Request{Subject: "s", Sender: "sndr"})
	require.NoError(t, err)
	assert.Equal(t, "unknown", resp.Category)
	assert.Equal(t, "unclassified", resp.SubCategory)
	assert.Equal(t, "info", resp.Urgency)
}

func TestSmartTruncate_ShortBodyUnchanged(t *testing.T) {
	body := strings.Repeat("a", 100)
	assert.Equal(t, body, smartTruncate(body))
}

func TestSmartTruncate_LongBodyKeepsHeadAndTail(t *testing.T) {
	body := strings.Repeat("a", 1500) + strings.Repeat("b", 1000) + strings.Repeat("c", 500)
	out := smartTruncate(body)
	assert.True(t, strings.HasPrefix(out, strings.Repeat("a", 1500)))
	assert.True(t, strings.HasSuffix(out, strings.Repeat("c", 500)))
	assert.Contains(t, out, truncateMarker)
}
