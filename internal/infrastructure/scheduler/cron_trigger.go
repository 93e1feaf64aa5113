package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantProvider lists the tenants the nightly run covers.
type TenantProvider interface {
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// Hour and Minute of the daily run, 24h clock in Location.
	Hour     int
	Minute   int
	Location *time.Location

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		Hour:          3,
		Minute:        0,
		Location:      time.UTC,
		CheckInterval: time.Minute,
	}
}

// ParseDailySchedule reads a daily cron expression such as "30 3 * * *".
// Day-of-month, month and day-of-week must be "*" since the trigger only
// runs daily. An empty expression yields the default 03:00.
func ParseDailySchedule(expr string) (hour, minute int, err error) {
	def := DefaultCronTriggerConfig()
	parts := strings.Fields(expr)
	if len(parts) == 0 {
		return def.Hour, def.Minute, nil
	}
	if len(parts) != 5 {
		return 0, 0, fmt.Errorf("%w: want 5 fields, got %q", ErrInvalidSchedule, expr)
	}
	for _, field := range parts[2:] {
		if field != "*" {
			return 0, 0, fmt.Errorf("%w: only daily schedules are supported, got %q", ErrInvalidSchedule, expr)
		}
	}
	minute, err = strconv.Atoi(parts[0])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute must be 0-59, got %q", ErrInvalidSchedule, parts[0])
	}
	hour, err = strconv.Atoi(parts[1])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour must be 0-23, got %q", ErrInvalidSchedule, parts[1])
	}
	return hour, minute, nil
}

// CronTrigger queues the maintenance jobs for every active tenant once a day.
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	tenants   TenantProvider
	logger    *zap.Logger
	now       func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(config CronTriggerConfig, scheduler *Scheduler, tenants TenantProvider, logger *zap.Logger) *CronTrigger {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &CronTrigger{
		config:    config,
		scheduler: scheduler,
		tenants:   tenants,
		logger:    logger,
		now:       time.Now,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Maintenance trigger started",
		zap.Int("hour", c.config.Hour),
		zap.Int("minute", c.config.Minute),
		zap.String("location", c.config.Location.String()),
	)
	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// shouldRun reports whether t falls on the configured minute.
func (c *CronTrigger) shouldRun(t time.Time) bool {
	t = t.In(c.config.Location)
	return t.Hour() == c.config.Hour && t.Minute() == c.config.Minute
}

// checkAndTrigger fires at most once per calendar day.
func (c *CronTrigger) checkAndTrigger(ctx context.Context) bool {
	now := c.now()
	if !c.shouldRun(now) {
		return false
	}
	today := now.In(c.config.Location).Format("2006-01-02")

	c.mu.Lock()
	if c.lastRunDate == today {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = today
	c.mu.Unlock()

	c.logger.Info("Triggering nightly maintenance")
	c.TriggerNow(ctx)
	return true
}

// TriggerNow queues the maintenance jobs for all active tenants and returns
// how many tenants were scheduled.
func (c *CronTrigger) TriggerNow(ctx context.Context) int {
	tenantIDs, err := c.tenants.ListActiveIDs(ctx)
	if err != nil {
		c.logger.Error("Failed to list tenants for maintenance", zap.Error(err))
		return 0
	}

	scheduled := 0
	for _, tenantID := range tenantIDs {
		if err := c.scheduler.ScheduleTenant(tenantID); err != nil {
			c.logger.Error("Failed to schedule maintenance for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		scheduled++
	}
	c.logger.Info("Maintenance scheduled", zap.Int("tenant_count", scheduled))
	return scheduled
}
