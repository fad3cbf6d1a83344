package models

import (
	"fmt"
	"time"
)

// JobType enumerates the scheduled notification jobs.
type JobType string

const (
	JobHostReminder    JobType = "host_reminder"
	JobSecretaryStatus JobType = "secretary_status"
	JobAnnouncement    JobType = "announcement"
	JobRatingRequest   JobType = "rating_request"
)

// AllJobTypes lists the jobs in trigger order across a week.
var AllJobTypes = []JobType{JobHostReminder, JobSecretaryStatus, JobAnnouncement, JobRatingRequest}

// ParseJobType validates a job name supplied by a trigger.
func ParseJobType(raw string) (JobType, error) {
	for _, jt := range AllJobTypes {
		if string(jt) == raw {
			return jt, nil
		}
	}
	return "", fmt.Errorf("unknown job %q", raw)
}

// HostReminderTier returns the log key for a host reminder tier.
func HostReminderTier(tier int) string {
	return fmt.Sprintf("%s_tier_%d", JobHostReminder, tier)
}

// NotificationStatus is the state of a single delivery attempt.
type NotificationStatus string

const (
	NotificationPending          NotificationStatus = "pending"
	NotificationSent             NotificationStatus = "sent"
	NotificationFailed           NotificationStatus = "failed"
	NotificationSkippedDuplicate NotificationStatus = "skipped_duplicate"
)

// NotificationLogEntry is one row of the append-only notification log.
type NotificationLogEntry struct {
	ID                string             `db:"id" json:"id"`
	EventID           *string            `db:"event_id" json:"event_id,omitempty"`
	JobType           string             `db:"job_type" json:"job_type"`
	RecipientEmail    string             `db:"recipient_email" json:"recipient_email"`
	RecipientName     string             `db:"recipient_name" json:"recipient_name"`
	Subject           string             `db:"subject" json:"subject"`
	Status            NotificationStatus `db:"status" json:"status"`
	ProviderMessageID *string            `db:"provider_message_id" json:"provider_message_id,omitempty"`
	ErrorMessage      *string            `db:"error_message" json:"error_message,omitempty"`
	CreatedAt         time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `db:"updated_at" json:"updated_at"`
}

// NotificationLogFilter narrows log listings.
type NotificationLogFilter struct {
	EventID  string
	JobType  string
	Status   string
	Page     int
	PageSize int
}

// JobResult summarises one job run.
type JobResult struct {
	Job        JobType   `json:"job"`
	EventID    string    `json:"event_id,omitempty"`
	EventDate  time.Time `json:"event_date"`
	DryRun     bool      `json:"dry_run"`
	Sent       int       `json:"sent"`
	Skipped    int       `json:"skipped"`
	Duplicates int       `json:"duplicates"`
	Failed     int       `json:"failed"`
	Planned    int       `json:"planned"`
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
}
