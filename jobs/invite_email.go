package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/loopworks/loopworks/internal/orgs"
)

// InviteEmailJob delivers organization invitation emails.
type InviteEmailJob struct {
	Logger   *slog.Logger
	SMTPAddr string
	From     string
}

// Handle processes TaskTypeInviteEmail tasks.
// TODO: deliver through SMTP once the mail relay is provisioned.
func (j *InviteEmailJob) Handle(_ context.Context, t *asynq.Task) error {
	var payload InviteEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("sending invite email",
		slog.String("smtp", j.SMTPAddr),
		slog.String("from", j.From),
		slog.String("to", payload.To),
		slog.String("org", payload.OrgName),
		slog.String("role", payload.Role),
		slog.String("invite_id", payload.InviteID))
	return nil
}

// InviteNotifier enqueues invitation emails for the organization service.
type InviteNotifier struct {
	client *Client
}

// NewInviteNotifier constructs the notifier.
func NewInviteNotifier(client *Client) *InviteNotifier {
	return &InviteNotifier{client: client}
}

// NotifyInvite enqueues the invitation email task.
func (n *InviteNotifier) NotifyInvite(ctx context.Context, invite orgs.Invite, orgName string) error {
	_, err := n.client.EnqueueInviteEmail(ctx, InviteEmailPayload{
		To:       invite.Email,
		OrgName:  orgName,
		Role:     string(invite.Role),
		InviteID: invite.ID,
	})
	return err
}
