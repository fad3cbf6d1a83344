package service

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
)

var tierLabels = []string{"this week", "next week", "in two weeks"}

func tierLabel(tier int) string {
	if tier < len(tierLabels) {
		return tierLabels[tier]
	}
	return fmt.Sprintf("in %d weeks", tier)
}

type hostReminderContent struct {
	Group       string
	Name        string
	Date        string
	StartTime   string
	Tier        int
	TierLabel   string
	ConfirmLink string
	Ready       bool
}

type secretaryStatusContent struct {
	Group          string
	Name           string
	Date           string
	StartTime      string
	Ready          bool
	Host           *models.Participant
	Backup         *models.Participant
	Venue          *models.Venue
	ExpectedGuests int
}

type announcementContent struct {
	Group     string
	Name      string
	Date      string
	StartTime string
	Venue     models.Venue
	Host      *models.Participant
}

type ratingRequestContent struct {
	Group     string
	Name      string
	Date      string
	VenueName string
	Links     []ratingLink
}

type ratingLink struct {
	Value int
	URL   string
}

var contentTemplates = template.Must(template.New("mail").Parse(`
{{define "host_reminder"}}Hi {{.Name}},

{{if eq .Tier 0}}You are **hosting {{.Group}} {{.TierLabel}}** on {{.Date}} at {{.StartTime}}.
{{else}}You are up to host {{.Group}} **{{.TierLabel}}** on {{.Date}}.
{{end}}
{{if .ConfirmLink}}Please pick a venue and confirm here: {{.ConfirmLink}}
{{else if not .Ready}}Please let the secretary know where the group is going.
{{end}}
Thanks!
{{end}}

{{define "secretary_status"}}Hi {{.Name}},

{{if .Ready}}{{.Group}} on {{.Date}} is **ready**.

| | |
|---|---|
| Venue | {{.Venue.Name}} |
| Address | {{.Venue.Address}} |
| Phone | {{.Venue.Phone}} |
| Time | {{.StartTime}} |
| Expected attendance | {{.ExpectedGuests}} |
{{if .Host}}| Host | {{.Host.Name}} |
{{end}}
Please make a reservation for {{.ExpectedGuests}}.
{{else}}**URGENT:** {{.Group}} on {{.Date}} is not confirmed yet.

{{if .Host}}Primary host: {{.Host.Name}} ({{.Host.Email}})
{{else}}No host has been assigned.
{{end}}{{if .Backup}}Backup host: {{.Backup.Name}} ({{.Backup.Email}})
{{end}}{{if .Venue}}Proposed venue: {{.Venue.Name}}
{{end}}
Expected attendance: {{.ExpectedGuests}}
{{end}}{{end}}

{{define "announcement"}}Hi {{.Name}},

{{.Group}} is on {{.Date}} at {{.StartTime}}.

**{{.Venue.Name}}**{{if .Venue.Address}}
{{.Venue.Address}}{{end}}
{{if .Host}}
Hosted by {{.Host.Name}}.
{{end}}
See you there!
{{end}}

{{define "rating_request"}}Hi {{.Name}},

How was {{.Group}}{{if .VenueName}} at {{.VenueName}}{{end}} on {{.Date}}?

{{if .Links}}{{range .Links}}[{{.Value}} ★]({{.URL}}) {{end}}
{{else}}Rating links are issued when the request is sent.
{{end}}
{{end}}
`))

func renderContent(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := contentTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func displayDate(d time.Time) string {
	return d.Format("Monday, January 2")
}

func hostReminderSubject(group string, tier int, date time.Time) string {
	if tier == 0 {
		return fmt.Sprintf("%s: you are hosting %s", group, displayDate(date))
	}
	return fmt.Sprintf("%s: you host %s (%s)", group, tierLabel(tier), displayDate(date))
}

func secretaryStatusSubject(group string, ready bool, date time.Time) string {
	if ready {
		return fmt.Sprintf("%s status for %s: ready", group, displayDate(date))
	}
	return fmt.Sprintf("URGENT: %s status for %s", group, displayDate(date))
}
