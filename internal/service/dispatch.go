package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/glindberg2000/ella-ai-sub000/internal/domain"
	"github.com/glindberg2000/ella-ai-sub000/internal/provider"
	"github.com/glindberg2000/ella-ai-sub000/internal/utils"
	"github.com/glindberg2000/ella-ai-sub000/pkg/observability"
)

// DispatchRouter renders reminder content and pushes it through the channel
// adapter matching the reminder. Adapter calls are retried per the injected
// policy; a reminder that still fails is left unmarked so the next poll
// pass retries it.
type DispatchRouter struct {
	content ContentRenderer
	email   EmailSender
	sms     SMSSender
	voice   VoiceCaller
	retry   RetryPolicy
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewDispatchRouter creates a dispatch router
func NewDispatchRouter(
	content ContentRenderer,
	email EmailSender,
	sms SMSSender,
	voice VoiceCaller,
	retry RetryPolicy,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *DispatchRouter {
	return &DispatchRouter{
		content: content,
		email:   email,
		sms:     sms,
		voice:   voice,
		retry:   retry,
		logger:  logger,
		metrics: metrics,
	}
}

// Dispatch delivers one due reminder and returns the delivery receipt id
func (r *DispatchRouter) Dispatch(ctx context.Context, user *domain.User, event *domain.Event, rem domain.Reminder) (string, error) {
	text := r.renderText(ctx, user, event, rem)

	var receipt string
	var err error

	switch rem.Channel {
	case domain.ChannelEmail:
		err = r.retry.Run(ctx, func() error {
			receipt, err = r.email.Send(ctx, user.Email, "Reminder: "+event.Summary, text, "")
			return err
		})

	case domain.ChannelSMS:
		var to string
		to, err = utils.NormalizePhone(user.Phone)
		if err != nil {
			return "", fmt.Errorf("cannot send sms to user %s: %w", user.ID, err)
		}
		err = r.retry.Run(ctx, func() error {
			receipt, err = r.sms.Send(ctx, to, text)
			return err
		})

	case domain.ChannelCall:
		var to string
		to, err = utils.NormalizePhone(user.Phone)
		if err != nil {
			return "", fmt.Errorf("cannot call user %s: %w", user.ID, err)
		}
		err = r.retry.Run(ctx, func() error {
			receipt, err = r.voice.StartCall(ctx, to, text)
			return err
		})

	case domain.ChannelPopup:
		// In-app fallback channel: no external adapter, surface via logs
		receipt = "popup-" + uuid.New().String()
		r.logger.Info("In-app reminder",
			zap.String("user_id", user.ID),
			zap.String("event_id", event.ID),
			zap.String("text", text),
		)

	default:
		return "", fmt.Errorf("no adapter for channel %q", rem.Channel)
	}

	if err != nil {
		r.metrics.RecordDispatchFailure(ctx, string(rem.Channel))
		return "", fmt.Errorf("dispatch via %s failed: %w", rem.Channel, err)
	}

	r.metrics.RecordDispatch(ctx, string(rem.Channel))
	r.logger.Info("Dispatched reminder",
		zap.String("user_id", user.ID),
		zap.String("event_id", event.ID),
		zap.String("reminder_key", rem.Key()),
		zap.String("receipt", receipt),
	)

	return receipt, nil
}

// renderText asks the content collaborator for reminder text, retrying
// transient failures. When the collaborator is down, reminders still go out
// with a plain fallback rendering.
func (r *DispatchRouter) renderText(ctx context.Context, user *domain.User, event *domain.Event, rem domain.Reminder) string {
	req := provider.ContentRequest{
		UserID:         user.ID,
		AgentContextID: user.AgentContextID,
		Channel:        string(rem.Channel),
		MinutesBefore:  rem.Minutes,
		EventSummary:   event.Summary,
		EventLocation:  event.Location,
		EventStart:     event.Start.In(),
		EventEnd:       event.End.In(),
	}

	var text string
	err := r.retry.Run(ctx, func() error {
		var err error
		text, err = r.content.Render(ctx, req)
		return err
	})
	if err != nil {
		r.logger.Warn("Content generation failed, using fallback text",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		start := event.Start.In()
		return fmt.Sprintf("Reminder: %s at %s", event.Summary, start.Format("Mon Jan 2 15:04"))
	}

	return text
}
