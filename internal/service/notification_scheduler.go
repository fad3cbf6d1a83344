package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
	"github.com/noah-isme/lunch-rotation-api/pkg/mailer"
	"github.com/noah-isme/lunch-rotation-api/pkg/token"
)

type schedulerCalendar interface {
	DateOf(t time.Time) time.Time
	NextWeeklyDate(from time.Time) time.Time
	PreviousWeeklyDate(from time.Time) time.Time
	LookaheadDates(from time.Time, n int) []time.Time
	GetOrCreate(ctx context.Context, date time.Time) (*models.Event, error)
	Find(ctx context.Context, date time.Time) (*models.Event, error)
}

type schedulerEventStore interface {
	AssignHostIfEmpty(ctx context.Context, eventID, hostID string) (*models.Event, error)
	EnsureConfirmationToken(ctx context.Context, eventID, token string) (string, error)
	RecentAttendeeCounts(ctx context.Context, limit int) ([]int, error)
}

type schedulerRoster interface {
	ListByCategory(ctx context.Context, category models.ParticipantCategory) ([]models.Participant, error)
	FindByID(ctx context.Context, id string) (*models.Participant, error)
}

type schedulerVenues interface {
	FindByID(ctx context.Context, id string) (*models.Venue, error)
}

type schedulerAttendance interface {
	ListAttendees(ctx context.Context, eventID string) ([]models.Participant, error)
}

type schedulerRatings interface {
	EnsureRequest(ctx context.Context, eventID, participantID, token string) (*models.Rating, error)
	RatedParticipantIDs(ctx context.Context, eventID string) ([]string, error)
}

type notificationLog interface {
	Claim(ctx context.Context, entry *models.NotificationLogEntry) (bool, error)
	MarkSent(ctx context.Context, id, providerMessageID string) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type jobLocker interface {
	Acquire(ctx context.Context, name string) (bool, func(), error)
}

type tokenIssuer interface {
	New() (string, error)
}

type linkSigner interface {
	Sign(purpose, opaque string) (string, time.Time, error)
}

type jobMetrics interface {
	RecordNotification(job models.JobType, status models.NotificationStatus)
	ObserveJobRun(job models.JobType, outcome string, duration time.Duration)
	RecordLockContention(job models.JobType)
}

// NotificationSchedulerConfig carries the tunables of the notification jobs.
type NotificationSchedulerConfig struct {
	GroupName         string
	StartTimeLabel    string
	LookaheadTiers    int
	DefaultAttendance int
	AttendanceWindow  int
	Concurrency       int
	DryRun            bool
	LinkBaseURL       string
}

// NotificationSchedulerDeps groups the collaborators of the scheduler.
type NotificationSchedulerDeps struct {
	Calendar   schedulerCalendar
	Events     schedulerEventStore
	Roster     schedulerRoster
	Venues     schedulerVenues
	Attendance schedulerAttendance
	Ratings    schedulerRatings
	Log        notificationLog
	Settings   SettingsProvider
	Sender     mailer.Sender
	Renderer   *mailer.Renderer
	Tokens     tokenIssuer
	Links      linkSigner
	Locker     jobLocker
	Metrics    jobMetrics
}

// RunOptions modify a single job run.
type RunOptions struct {
	DryRun bool
}

// NotificationScheduler evaluates the weekly notification jobs and records
// every delivery attempt in the notification log.
type NotificationScheduler struct {
	deps   NotificationSchedulerDeps
	cfg    NotificationSchedulerConfig
	logger *zap.Logger
}

// NewNotificationScheduler constructs a NotificationScheduler.
func NewNotificationScheduler(deps NotificationSchedulerDeps, cfg NotificationSchedulerConfig, logger *zap.Logger) *NotificationScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Renderer == nil {
		deps.Renderer = mailer.NewRenderer()
	}
	if cfg.LookaheadTiers <= 0 {
		cfg.LookaheadTiers = 3
	}
	if cfg.DefaultAttendance <= 0 {
		cfg.DefaultAttendance = 15
	}
	if cfg.AttendanceWindow <= 0 {
		cfg.AttendanceWindow = 4
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.GroupName == "" {
		cfg.GroupName = "Lunch"
	}
	return &NotificationScheduler{deps: deps, cfg: cfg, logger: logger}
}

// outbound is one rendered notification waiting for dispatch.
type outbound struct {
	eventID   *string
	logKey    string
	recipient models.Participant
	subject   string
	body      string
}

// Run executes job as of today. Structural problems are returned as errors;
// per recipient failures are only counted in the result.
func (s *NotificationScheduler) Run(ctx context.Context, job models.JobType, today time.Time, opts RunOptions) (*models.JobResult, error) {
	start := time.Now()
	today = s.deps.Calendar.DateOf(today)
	dryRun := opts.DryRun || s.cfg.DryRun

	if s.deps.Locker != nil {
		acquired, release, err := s.deps.Locker.Acquire(ctx, fmt.Sprintf("%s:%s", job, today.Format(dateLayout)))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire job lock")
		}
		if !acquired {
			s.recordContention(job)
			return nil, appErrors.Clone(appErrors.ErrLocked, fmt.Sprintf("%s is already running", job))
		}
		defer release()
	}

	var (
		result *models.JobResult
		err    error
	)
	switch job {
	case models.JobHostReminder:
		result, err = s.hostReminders(ctx, today, dryRun)
	case models.JobSecretaryStatus:
		result, err = s.secretaryStatus(ctx, today, dryRun)
	case models.JobAnnouncement:
		result, err = s.announcement(ctx, today, dryRun)
	case models.JobRatingRequest:
		result, err = s.ratingRequests(ctx, today, dryRun)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown job %q", job))
	}

	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
		s.logger.Warn("notification job aborted", zap.String("job", string(job)), zap.Time("today", today), zap.Error(err))
	case !result.Success:
		outcome = "noop"
	case result.Failed > 0:
		outcome = "partial"
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveJobRun(job, outcome, time.Since(start))
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("notification job finished",
		zap.String("job", string(job)),
		zap.String("outcome", outcome),
		zap.Bool("dry_run", dryRun),
		zap.Int("sent", result.Sent),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Int("planned", result.Planned),
	)
	return result, nil
}

func (s *NotificationScheduler) hostReminders(ctx context.Context, today time.Time, dryRun bool) (*models.JobResult, error) {
	tiers := s.cfg.LookaheadTiers
	ranked, err := s.rankedRegulars(ctx)
	if err != nil {
		return nil, err
	}
	if len(ranked) < tiers {
		return nil, appErrors.Clone(appErrors.ErrConfiguration,
			fmt.Sprintf("host reminders need at least %d regular participants, found %d", tiers, len(ranked)))
	}

	dates := s.deps.Calendar.LookaheadDates(today, tiers)
	result := newJobResult(models.JobHostReminder, dates[0], dryRun)
	events := make([]*models.Event, len(dates))
	for tier, date := range dates {
		event, err := s.deps.Calendar.GetOrCreate(ctx, date)
		if err != nil {
			return nil, err
		}
		if tier == 0 {
			result.EventID = event.ID
		}
		events[tier] = event
	}

	hosts, err := s.tierHosts(ctx, events, ranked)
	if err != nil {
		return nil, err
	}

	items := make([]outbound, 0, tiers)
	for tier, date := range dates {
		event := events[tier]
		if event.Status == models.EventCancelled {
			result.Skipped++
			continue
		}
		if tier > 0 && event.Ready() {
			result.Skipped++
			continue
		}
		host := hosts[tier]

		content := hostReminderContent{
			Group:     s.cfg.GroupName,
			Name:      host.Name,
			Date:      displayDate(date),
			StartTime: s.cfg.StartTimeLabel,
			Tier:      tier,
			TierLabel: tierLabel(tier),
			Ready:     event.Ready(),
		}
		if tier == 0 && !dryRun {
			link, err := s.prepareHosting(ctx, event, host)
			if err != nil {
				return nil, err
			}
			content.ConfirmLink = link
		}

		body, err := renderContent("host_reminder", content)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render host reminder")
		}
		items = append(items, outbound{
			eventID:   eventIDPtr(event),
			logKey:    models.HostReminderTier(tier),
			recipient: host,
			subject:   hostReminderSubject(s.cfg.GroupName, tier, date),
			body:      body,
		})
	}

	s.dispatch(ctx, models.JobHostReminder, items, dryRun, result)
	return s.finish(result), nil
}

// tierHosts picks one distinct participant per lookahead event. Assigned
// hosts keep their event; the remaining tiers take the highest ranked
// participants not already hosting one of the looked-ahead events. Cancelled
// events get no host.
func (s *NotificationScheduler) tierHosts(ctx context.Context, events []*models.Event, ranked []models.Participant) ([]models.Participant, error) {
	hosts := make([]models.Participant, len(events))
	assigned := make([]bool, len(events))
	taken := make(map[string]bool, len(events))
	for tier, event := range events {
		if event.Status == models.EventCancelled || event.HostID == nil || *event.HostID == "" {
			continue
		}
		host, err := s.tierHost(ctx, event, models.Participant{})
		if err != nil {
			return nil, err
		}
		hosts[tier] = host
		assigned[tier] = true
		taken[host.ID] = true
	}

	next := 0
	for tier, event := range events {
		if assigned[tier] || event.Status == models.EventCancelled {
			continue
		}
		for next < len(ranked) && taken[ranked[next].ID] {
			next++
		}
		if next == len(ranked) {
			return nil, appErrors.Clone(appErrors.ErrConfiguration, "not enough regular participants left to fill every reminder tier")
		}
		hosts[tier] = ranked[next]
		taken[ranked[next].ID] = true
		next++
	}
	return hosts, nil
}

// tierHost prefers the host already assigned to the event over the ranking.
func (s *NotificationScheduler) tierHost(ctx context.Context, event *models.Event, fallback models.Participant) (models.Participant, error) {
	if event.HostID == nil || *event.HostID == "" {
		return fallback, nil
	}
	host, err := s.deps.Roster.FindByID(ctx, *event.HostID)
	if err != nil {
		return models.Participant{}, notFoundOr(err, "assigned host not found", "failed to load assigned host")
	}
	return *host, nil
}

// prepareHosting assigns the host if none is set and returns the signed
// confirmation link for the event.
func (s *NotificationScheduler) prepareHosting(ctx context.Context, event *models.Event, host models.Participant) (string, error) {
	if event.HostID == nil {
		updated, err := s.deps.Events.AssignHostIfEmpty(ctx, event.ID, host.ID)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign host")
		}
		*event = *updated
	}
	if s.deps.Tokens == nil || s.deps.Links == nil {
		return "", nil
	}
	candidate, err := s.deps.Tokens.New()
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mint confirmation token")
	}
	stored, err := s.deps.Events.EnsureConfirmationToken(ctx, event.ID, candidate)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store confirmation token")
	}
	signed, _, err := s.deps.Links.Sign(token.PurposeHostConfirmation, stored)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign confirmation link")
	}
	return fmt.Sprintf("%s/public/hosting/%s", s.cfg.LinkBaseURL, signed), nil
}

func (s *NotificationScheduler) secretaryStatus(ctx context.Context, today time.Time, dryRun bool) (*models.JobResult, error) {
	if s.deps.Settings == nil {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "no secretary designated")
	}
	secretary, err := s.deps.Settings.Secretary(ctx)
	if err != nil {
		return nil, err
	}
	if secretary.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "secretary has no contact address")
	}

	date := s.deps.Calendar.NextWeeklyDate(today)
	event, err := s.deps.Calendar.GetOrCreate(ctx, date)
	if err != nil {
		return nil, err
	}
	result := newJobResult(models.JobSecretaryStatus, date, dryRun)
	result.EventID = event.ID
	if event.Status == models.EventCancelled {
		result.Success = false
		result.Message = fmt.Sprintf("event on %s is cancelled", date.Format(dateLayout))
		return result, nil
	}

	ranked, err := s.rankedRegulars(ctx)
	if err != nil {
		return nil, err
	}
	content := secretaryStatusContent{
		Group:     s.cfg.GroupName,
		Name:      secretary.Name,
		Date:      displayDate(date),
		StartTime: s.cfg.StartTimeLabel,
	}

	var fallback *models.Participant
	if len(ranked) > 0 {
		fallback = &ranked[0]
	}
	if event.HostID != nil {
		host, err := s.tierHost(ctx, event, models.Participant{})
		if err != nil {
			return nil, err
		}
		content.Host = &host
	} else {
		content.Host = fallback
	}
	for i := range ranked {
		if content.Host == nil || ranked[i].ID != content.Host.ID {
			content.Backup = &ranked[i]
			break
		}
	}

	if event.VenueID != nil {
		venue, err := s.deps.Venues.FindByID(ctx, *event.VenueID)
		if err != nil {
			return nil, notFoundOr(err, "venue not found", "failed to load venue")
		}
		content.Venue = venue
	}
	content.Ready = event.Ready() && content.Venue != nil

	expected, err := s.expectedAttendance(ctx)
	if err != nil {
		return nil, err
	}
	content.ExpectedGuests = expected

	body, err := renderContent("secretary_status", content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render secretary status")
	}
	items := []outbound{{
		eventID:   eventIDPtr(event),
		logKey:    string(models.JobSecretaryStatus),
		recipient: *secretary,
		subject:   secretaryStatusSubject(s.cfg.GroupName, content.Ready, date),
		body:      body,
	}}

	s.dispatch(ctx, models.JobSecretaryStatus, items, dryRun, result)
	return s.finish(result), nil
}

func (s *NotificationScheduler) announcement(ctx context.Context, today time.Time, dryRun bool) (*models.JobResult, error) {
	date := s.deps.Calendar.NextWeeklyDate(today)
	event, err := s.deps.Calendar.GetOrCreate(ctx, date)
	if err != nil {
		return nil, err
	}
	result := newJobResult(models.JobAnnouncement, date, dryRun)
	result.EventID = event.ID
	if event.Status == models.EventCancelled {
		result.Success = false
		result.Message = fmt.Sprintf("event on %s is cancelled", date.Format(dateLayout))
		return result, nil
	}
	if !event.HasConfirmedVenue() {
		result.Success = false
		result.Message = fmt.Sprintf("no confirmed venue for %s; announcement not sent", date.Format(dateLayout))
		return result, nil
	}

	venue, err := s.deps.Venues.FindByID(ctx, *event.VenueID)
	if err != nil {
		return nil, notFoundOr(err, "venue not found", "failed to load venue")
	}
	var host *models.Participant
	if event.HostID != nil {
		h, err := s.tierHost(ctx, event, models.Participant{})
		if err != nil {
			return nil, err
		}
		host = &h
	}

	regulars, err := s.deps.Roster.ListByCategory(ctx, models.CategoryRegular)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	subject := fmt.Sprintf("%s %s: %s", s.cfg.GroupName, displayDate(date), venue.Name)
	items := make([]outbound, 0, len(regulars))
	for _, p := range regulars {
		body, err := renderContent("announcement", announcementContent{
			Group:     s.cfg.GroupName,
			Name:      p.Name,
			Date:      displayDate(date),
			StartTime: s.cfg.StartTimeLabel,
			Venue:     *venue,
			Host:      host,
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render announcement")
		}
		items = append(items, outbound{eventID: eventIDPtr(event), logKey: string(models.JobAnnouncement), recipient: p, subject: subject, body: body})
	}

	s.dispatch(ctx, models.JobAnnouncement, items, dryRun, result)
	return s.finish(result), nil
}

func (s *NotificationScheduler) ratingRequests(ctx context.Context, today time.Time, dryRun bool) (*models.JobResult, error) {
	date := s.deps.Calendar.PreviousWeeklyDate(today)
	result := newJobResult(models.JobRatingRequest, date, dryRun)

	event, err := s.deps.Calendar.Find(ctx, date)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			result.Success = false
			result.Message = fmt.Sprintf("no event recorded for %s", date.Format(dateLayout))
			return result, nil
		}
		return nil, err
	}
	result.EventID = event.ID
	if event.Status != models.EventCompleted {
		result.Success = false
		result.Message = fmt.Sprintf("attendance not recorded for %s; rating requests not sent", date.Format(dateLayout))
		return result, nil
	}

	attendees, err := s.deps.Attendance.ListAttendees(ctx, event.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendees")
	}
	rated, err := s.deps.Ratings.RatedParticipantIDs(ctx, event.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ratings")
	}
	alreadyRated := make(map[string]struct{}, len(rated))
	for _, id := range rated {
		alreadyRated[id] = struct{}{}
	}

	venueName := ""
	if event.VenueID != nil {
		if venue, err := s.deps.Venues.FindByID(ctx, *event.VenueID); err == nil {
			venueName = venue.Name
		}
	}

	subject := fmt.Sprintf("How was %s on %s?", s.cfg.GroupName, displayDate(date))
	items := make([]outbound, 0, len(attendees))
	for _, p := range attendees {
		if _, ok := alreadyRated[p.ID]; ok {
			result.Skipped++
			continue
		}
		content := ratingRequestContent{Group: s.cfg.GroupName, Name: p.Name, Date: displayDate(date), VenueName: venueName}
		if !dryRun {
			links, err := s.ratingLinks(ctx, event.ID, p.ID)
			if err != nil {
				s.logger.Warn("rating request skipped", zap.String("participant_id", p.ID), zap.Error(err))
				result.Failed++
				continue
			}
			content.Links = links
		}
		body, err := renderContent("rating_request", content)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render rating request")
		}
		items = append(items, outbound{eventID: eventIDPtr(event), logKey: string(models.JobRatingRequest), recipient: p, subject: subject, body: body})
	}

	s.dispatch(ctx, models.JobRatingRequest, items, dryRun, result)
	return s.finish(result), nil
}

func (s *NotificationScheduler) ratingLinks(ctx context.Context, eventID, participantID string) ([]ratingLink, error) {
	if s.deps.Tokens == nil || s.deps.Links == nil {
		return nil, nil
	}
	candidate, err := s.deps.Tokens.New()
	if err != nil {
		return nil, err
	}
	rating, err := s.deps.Ratings.EnsureRequest(ctx, eventID, participantID, candidate)
	if err != nil {
		return nil, err
	}
	signed, _, err := s.deps.Links.Sign(token.PurposeRating, rating.Token)
	if err != nil {
		return nil, err
	}
	links := make([]ratingLink, 0, 5)
	for v := 1; v <= 5; v++ {
		links = append(links, ratingLink{Value: v, URL: fmt.Sprintf("%s/public/ratings/%s?value=%d", s.cfg.LinkBaseURL, signed, v)})
	}
	return links, nil
}

// dispatch sends items concurrently. Each recipient is claimed in the
// notification log before the transport is called; a lost claim is counted
// as a duplicate and never sent.
func (s *NotificationScheduler) dispatch(ctx context.Context, job models.JobType, items []outbound, dryRun bool, result *models.JobResult) {
	var sent, duplicates, skipped, failed, planned atomic.Int64

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, item := range items {
		g.Go(func() error {
			log := s.logger.With(zap.String("job", item.logKey), zap.String("recipient", item.recipient.Email))
			if item.recipient.Email == "" {
				skipped.Add(1)
				return nil
			}
			msg, err := s.deps.Renderer.Compose(item.recipient.Email, item.recipient.Name, item.subject, item.body)
			if err != nil {
				log.Warn("render notification", zap.Error(err))
				failed.Add(1)
				s.recordNotification(job, models.NotificationFailed)
				return nil
			}
			if dryRun {
				planned.Add(1)
				return nil
			}

			entry := &models.NotificationLogEntry{
				EventID:        item.eventID,
				JobType:        item.logKey,
				RecipientEmail: item.recipient.Email,
				RecipientName:  item.recipient.Name,
				Subject:        item.subject,
			}
			claimed, err := s.deps.Log.Claim(ctx, entry)
			if err != nil {
				log.Error("claim notification slot", zap.Error(err))
				failed.Add(1)
				s.recordNotification(job, models.NotificationFailed)
				return nil
			}
			if !claimed {
				duplicates.Add(1)
				s.recordNotification(job, models.NotificationSkippedDuplicate)
				return nil
			}

			res, err := s.deps.Sender.Send(ctx, msg)
			if err != nil {
				delivery := appErrors.Wrap(err, appErrors.ErrDelivery.Code, appErrors.ErrDelivery.Status, "delivery failed")
				log.Warn("send notification", zap.Error(delivery))
				if markErr := s.deps.Log.MarkFailed(ctx, entry.ID, err.Error()); markErr != nil {
					log.Error("mark notification failed", zap.Error(markErr))
				}
				failed.Add(1)
				s.recordNotification(job, models.NotificationFailed)
				return nil
			}
			if err := s.deps.Log.MarkSent(ctx, entry.ID, res.ProviderMessageID); err != nil {
				log.Error("mark notification sent", zap.Error(err))
			}
			sent.Add(1)
			s.recordNotification(job, models.NotificationSent)
			return nil
		})
	}
	_ = g.Wait()

	result.Sent += int(sent.Load())
	result.Duplicates += int(duplicates.Load())
	result.Skipped += int(skipped.Load())
	result.Failed += int(failed.Load())
	result.Planned += int(planned.Load())
}

func (s *NotificationScheduler) rankedRegulars(ctx context.Context) ([]models.Participant, error) {
	regulars, err := s.deps.Roster.ListByCategory(ctx, models.CategoryRegular)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return RankParticipants(regulars, 0), nil
}

// expectedAttendance is the rounded mean attendee count of recent completed
// events, or the configured default when there is no history.
func (s *NotificationScheduler) expectedAttendance(ctx context.Context) (int, error) {
	counts, err := s.deps.Events.RecentAttendeeCounts(ctx, s.cfg.AttendanceWindow)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}
	if len(counts) == 0 {
		return s.cfg.DefaultAttendance, nil
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	return int(math.Round(float64(total) / float64(len(counts)))), nil
}

func (s *NotificationScheduler) recordNotification(job models.JobType, status models.NotificationStatus) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordNotification(job, status)
	}
}

func (s *NotificationScheduler) recordContention(job models.JobType) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordLockContention(job)
	}
}

func (s *NotificationScheduler) finish(result *models.JobResult) *models.JobResult {
	if result.DryRun {
		result.Message = fmt.Sprintf("dry run: %d planned, %d skipped, %d failed", result.Planned, result.Skipped, result.Failed)
		return result
	}
	result.Message = fmt.Sprintf("%d sent, %d duplicate, %d skipped, %d failed", result.Sent, result.Duplicates, result.Skipped, result.Failed)
	return result
}

func newJobResult(job models.JobType, date time.Time, dryRun bool) *models.JobResult {
	return &models.JobResult{Job: job, EventDate: date, DryRun: dryRun, Success: true}
}

func eventIDPtr(event *models.Event) *string {
	id := event.ID
	return &id
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}
