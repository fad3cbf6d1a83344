package main

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
	"github.com/noah-isme/lunch-rotation-api/internal/repository"
	"github.com/noah-isme/lunch-rotation-api/internal/scheduler"
	"github.com/noah-isme/lunch-rotation-api/internal/service"
	"github.com/noah-isme/lunch-rotation-api/pkg/cache"
	"github.com/noah-isme/lunch-rotation-api/pkg/config"
	"github.com/noah-isme/lunch-rotation-api/pkg/database"
	"github.com/noah-isme/lunch-rotation-api/pkg/mailer"
	"github.com/noah-isme/lunch-rotation-api/pkg/token"
)

// application holds every long-lived collaborator shared by the commands.
type application struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB
	redis  *redis.Client

	calendar      *service.EventCalendar
	metrics       *service.MetricsService
	auth          *service.AuthService
	roster        *service.RosterService
	ranking       *service.RankingService
	attendance    *service.AttendanceService
	events        *service.EventService
	confirmations *service.ConfirmationService
	settings      *service.SettingsService
	venues        *service.VenueService
	history       *service.NotificationLogService
	notifications *service.NotificationScheduler
}

func newApplication(cfg *config.Config, logr *zap.Logger) (*application, error) {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if redisClient == nil {
		logr.Warn("redis disabled; job locks are process local only")
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	participantRepo := repository.NewParticipantRepository(db)
	eventRepo := repository.NewEventRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	venueRepo := repository.NewVenueRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	logRepo := repository.NewNotificationLogRepository(db, cfg.Scheduler.LockTTL)

	links := token.NewLinkSigner(cfg.Notifications.LinkSecret, cfg.Notifications.LinkTTL)
	calendar := service.NewEventCalendar(eventRepo, cfg.Lunch.Weekday, cfg.Lunch.Location)
	settings := service.NewSettingsService(settingsRepo, participantRepo, cfg.Lunch.SecretaryFallback, logr)

	app := &application{
		cfg:           cfg,
		logger:        logr,
		db:            db,
		redis:         redisClient,
		calendar:      calendar,
		metrics:       metrics,
		settings:      settings,
		auth:          service.NewAuthService(participantRepo, logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, AccessTokenExpiry: cfg.JWT.Expiration, Issuer: cfg.JWT.Issuer}),
		roster:        service.NewRosterService(participantRepo, validate, logr),
		ranking:       service.NewRankingService(participantRepo, calendar, logr),
		attendance:    service.NewAttendanceService(attendanceRepo, validate, logr),
		events:        service.NewEventService(calendar, eventRepo, participantRepo, venueRepo, logr),
		confirmations: service.NewConfirmationService(eventRepo, venueRepo, participantRepo, ratingRepo, links, validate, logr),
		venues:        service.NewVenueService(venueRepo, validate, logr),
		history:       service.NewNotificationLogService(logRepo, logr),
	}

	app.notifications = service.NewNotificationScheduler(service.NotificationSchedulerDeps{
		Calendar:   calendar,
		Events:     eventRepo,
		Roster:     participantRepo,
		Venues:     venueRepo,
		Attendance: attendanceRepo,
		Ratings:    ratingRepo,
		Log:        logRepo,
		Settings:   settings,
		Sender:     mailer.NewLogSender(cfg.Notifications.SenderName, cfg.Notifications.SenderAddress, logr),
		Renderer:   mailer.NewRenderer(),
		Tokens:     token.NewIssuer(),
		Links:      links,
		Locker:     cache.NewLocker(redisClient, cfg.Scheduler.LockTTL, logr),
		Metrics:    metrics,
	}, service.NotificationSchedulerConfig{
		GroupName:         cfg.Lunch.GroupDisplayName,
		StartTimeLabel:    cfg.Lunch.StartTimeLabel,
		LookaheadTiers:    cfg.Lunch.LookaheadTiers,
		DefaultAttendance: cfg.Lunch.DefaultAttendance,
		AttendanceWindow:  cfg.Lunch.AttendanceWindow,
		Concurrency:       cfg.Notifications.DispatchConcurrency,
		DryRun:            cfg.Notifications.DryRun,
		LinkBaseURL:       cfg.Notifications.AppBaseURL + cfg.APIPrefix,
	}, logr)

	return app, nil
}

// trigger builds the cron trigger. With the scheduler disabled no cron entry
// is registered but manual runs can still be queued.
func (a *application) trigger() (*scheduler.Trigger, error) {
	specs := map[models.JobType]string{}
	if a.cfg.Scheduler.Enabled {
		specs[models.JobHostReminder] = a.cfg.Scheduler.HostReminderSpec
		specs[models.JobSecretaryStatus] = a.cfg.Scheduler.SecretarySpec
		specs[models.JobAnnouncement] = a.cfg.Scheduler.AnnouncementSpec
		specs[models.JobRatingRequest] = a.cfg.Scheduler.RatingSpec
	}
	return scheduler.NewTrigger(a.notifications, scheduler.Config{
		Location:   a.cfg.Lunch.Location,
		Specs:      specs,
		Workers:    a.cfg.Scheduler.Workers,
		Retries:    a.cfg.Scheduler.Retries,
		RetryDelay: 30 * time.Second,
	}, a.logger)
}

func (a *application) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close postgres", zap.Error(err))
	}
}
