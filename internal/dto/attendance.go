package dto

// SubmitAttendanceRequest is the snapshot of who attended and who hosted.
type SubmitAttendanceRequest struct {
	AttendeeIDs []string `json:"attendee_ids" validate:"dive,required"`
	HostID      *string  `json:"host_id" validate:"omitempty"`
}
