// Package jobs holds the Asynq task definitions, worker bootstrap, and job
// handlers for background processing.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeInviteEmail delivers organization invitation emails.
	TaskTypeInviteEmail = "mail:invite"
	// TaskTypeProgressRecalc refreshes loop progress across tenants.
	TaskTypeProgressRecalc = "loops:progress_recalc"
)

// InviteEmailPayload describes an invitation email to send.
type InviteEmailPayload struct {
	To       string `json:"to"`
	OrgName  string `json:"org_name"`
	Role     string `json:"role"`
	InviteID string `json:"invite_id"`
}

// NewInviteEmailTask constructs an invite email task.
func NewInviteEmailTask(payload InviteEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeInviteEmail, data), nil
}

// ProgressRecalcPayload scopes a recalculation run. An empty OrgID means
// every organization.
type ProgressRecalcPayload struct {
	OrgID string `json:"org_id,omitempty"`
}

// NewProgressRecalcTask constructs a progress recalculation task.
func NewProgressRecalcTask(payload ProgressRecalcPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeProgressRecalc, data), nil
}
