package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// EmailClient sends reminder emails through the external email provider
type EmailClient struct {
	client *resty.Client
}

// NewEmailClient creates an email client. httpClient carries the OAuth
// transport from the credential manager.
func NewEmailClient(baseURL string, timeout time.Duration, httpClient *http.Client) *EmailClient {
	c := resty.NewWithClient(httpClient).
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	return &EmailClient{client: c}
}

type emailMessage struct {
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	InReplyTo string `json:"in_reply_to,omitempty"`
}

type messageReceipt struct {
	MessageID string `json:"message_id"`
}

// Send delivers one email and returns the provider message id.
// inReplyTo threads the message under an earlier one when non-empty.
func (c *EmailClient) Send(ctx context.Context, to, subject, body, inReplyTo string) (string, error) {
	var out messageReceipt

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(emailMessage{To: to, Subject: subject, Body: body, InReplyTo: inReplyTo}).
		SetResult(&out).
		Post("/messages")
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	if resp.IsError() {
		return "", &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	return out.MessageID, nil
}

// SMSClient sends reminder texts through the external SMS provider
type SMSClient struct {
	client *resty.Client
}

// NewSMSClient creates an SMS client
func NewSMSClient(baseURL string, timeout time.Duration) *SMSClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	return &SMSClient{client: c}
}

type smsMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Send delivers one SMS to an E.164-normalized number
func (c *SMSClient) Send(ctx context.Context, to, body string) (string, error) {
	var out messageReceipt

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(smsMessage{To: to, Body: body}).
		SetResult(&out).
		Post("/messages")
	if err != nil {
		return "", fmt.Errorf("failed to send sms: %w", err)
	}
	if resp.IsError() {
		return "", &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	return out.MessageID, nil
}

// VoiceClient starts outbound reminder calls through the voice provider
type VoiceClient struct {
	client *resty.Client
}

// NewVoiceClient creates a voice-call client
func NewVoiceClient(baseURL string, timeout time.Duration) *VoiceClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	return &VoiceClient{client: c}
}

type callRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type callReceipt struct {
	CallID string `json:"call_id"`
}

// StartCall places an outbound call that opens with the given message
func (c *VoiceClient) StartCall(ctx context.Context, to, message string) (string, error) {
	var out callReceipt

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(callRequest{To: to, Message: message}).
		SetResult(&out).
		Post("/calls")
	if err != nil {
		return "", fmt.Errorf("failed to start call: %w", err)
	}
	if resp.IsError() {
		return "", &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	return out.CallID, nil
}
