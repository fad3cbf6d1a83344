package dto

// RunJobRequest triggers a notification job by name.
type RunJobRequest struct {
	Job    string `json:"job" validate:"required,oneof=host_reminder secretary_status announcement rating_request"`
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	DryRun bool   `json:"dry_run"`
	Async  bool   `json:"async"`
}

// JobAccepted is returned when a run was queued rather than executed inline.
type JobAccepted struct {
	JobID string `json:"job_id"`
	Job   string `json:"job"`
	Date  string `json:"date"`
}
