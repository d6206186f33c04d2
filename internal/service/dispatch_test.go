package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/glindberg2000/ella-ai-sub000/internal/domain"
)

func testRouter(content *fakeContent, email *fakeSender, sms *fakeSMS, voice *fakeVoice) *DispatchRouter {
	return NewDispatchRouter(
		content,
		email,
		sms,
		voice,
		ZeroDelayPolicy(3, nil),
		zap.NewNop(),
		nil,
	)
}

func dispatchFixtures() (*domain.User, *domain.Event) {
	start := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	user := testUser()
	event := eventAt(start)
	return user, event
}

func TestDispatch_Email(t *testing.T) {
	content := &fakeContent{text: "Dentist in 30 minutes"}
	email := &fakeSender{}
	router := testRouter(content, email, &fakeSMS{}, &fakeVoice{})

	user, event := dispatchFixtures()
	rem := domain.Reminder{EventID: event.ID, Channel: domain.ChannelEmail, Minutes: 30}

	receipt, err := router.Dispatch(context.Background(), user, event, rem)
	require.NoError(t, err)
	assert.Equal(t, "receipt-1", receipt)

	require.Len(t, email.sent, 1)
	assert.Equal(t, user.Email, email.sent[0].to)
	assert.Equal(t, "Dentist in 30 minutes", email.sent[0].body)
}

func TestDispatch_SMSNormalizesPhone(t *testing.T) {
	sms := &fakeSMS{}
	router := testRouter(&fakeContent{}, &fakeSender{}, sms, &fakeVoice{})

	user, event := dispatchFixtures()
	user.Phone = "(415) 555-0123"
	rem := domain.Reminder{EventID: event.ID, Channel: domain.ChannelSMS, Minutes: 10}

	_, err := router.Dispatch(context.Background(), user, event, rem)
	require.NoError(t, err)

	require.Len(t, sms.sent, 1)
	assert.Equal(t, "+14155550123", sms.sent[0].to)
}

func TestDispatch_SMSRejectsBadPhone(t *testing.T) {
	sms := &fakeSMS{}
	router := testRouter(&fakeContent{}, &fakeSender{}, sms, &fakeVoice{})

	user, event := dispatchFixtures()
	user.Phone = "not-a-number"
	rem := domain.Reminder{EventID: event.ID, Channel: domain.ChannelSMS, Minutes: 10}

	_, err := router.Dispatch(context.Background(), user, event, rem)
	require.Error(t, err)
	assert.Zero(t, sms.calls)
}

func TestDispatch_RetriesTransientSendFailure(t *testing.T) {
	email := &fakeSender{failures: 2}
	router := testRouter(&fakeContent{}, email, &fakeSMS{}, &fakeVoice{})

	user, event := dispatchFixtures()
	rem := domain.Reminder{EventID: event.ID, Channel: domain.ChannelEmail, Minutes: 30}

	receipt, err := router.Dispatch(context.Background(), user, event, rem)
	require.NoError(t, err)
	assert.NotEmpty(t, receipt)
	assert.Equal(t, 3, email.calls)
}

func TestDispatch_FailsAfterExhaustedRetries(t *testing.T) {
	email := &fakeSender{failures: 5}
	router := testRouter(&fakeContent{}, email, &fakeSMS{}, &fakeVoice{})

	user, event := dispatchFixtures()
	rem := domain.Reminder{EventID: event.ID, Channel: domain.ChannelEmail, Minutes: 30}

	_, err := router.Dispatch(context.Background(), user, event, rem)
	require.Error(t, err)
	assert.Equal(t, 3, email.calls)
}

func TestDispatch_FallbackTextWhenContentDown(t *testing.T) {
	content := &fakeContent{failures: 10}
	email := &fakeSender{}
	router := testRouter(content, email, &fakeSMS{}, &fakeVoice{})

	user, event := dispatchFixtures()
	rem := domain.Reminder{EventID: event.ID, Channel: domain.ChannelEmail, Minutes: 30}

	_, err := router.Dispatch(context.Background(), user, event, rem)
	require.NoError(t, err)

	require.Len(t, email.sent, 1)
	assert.True(t, strings.HasPrefix(email.sent[0].body, "Reminder: Dentist"))
}

func TestDispatch_PopupNeedsNoAdapter(t *testing.T) {
	router := testRouter(&fakeContent{}, &fakeSender{}, &fakeSMS{}, &fakeVoice{})

	user, event := dispatchFixtures()
	rem := domain.Reminder{EventID: event.ID, Channel: domain.ChannelPopup, Minutes: 5}

	receipt, err := router.Dispatch(context.Background(), user, event, rem)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(receipt, "popup-"))
}

func TestDispatch_Voice(t *testing.T) {
	voice := &fakeVoice{}
	router := testRouter(&fakeContent{text: "call text"}, &fakeSender{}, &fakeSMS{}, voice)

	user, event := dispatchFixtures()
	rem := domain.Reminder{EventID: event.ID, Channel: domain.ChannelCall, Minutes: 60}

	_, err := router.Dispatch(context.Background(), user, event, rem)
	require.NoError(t, err)

	require.Len(t, voice.sent, 1)
	assert.Equal(t, "call text", voice.sent[0].body)
}

func TestDispatch_UnknownChannel(t *testing.T) {
	router := testRouter(&fakeContent{}, &fakeSender{}, &fakeSMS{}, &fakeVoice{})

	user, event := dispatchFixtures()
	rem := domain.Reminder{EventID: event.ID, Channel: domain.Channel("pigeon"), Minutes: 5}

	_, err := router.Dispatch(context.Background(), user, event, rem)
	require.Error(t, err)
}
