// Package service contains the background jobs that run next to the API
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type ExpiredOTPDeleter interface {
	DeleteExpiredOTPs(ctx context.Context, now time.Time) (int64, error)
}

// OTPCleanup periodically purges verification codes that can no longer be
// used. Expired codes never match anyway, this only keeps the table small.
type OTPCleanup struct {
	store ExpiredOTPDeleter
	cron  *cron.Cron
	now   func() time.Time
}

// NewOTPCleanup schedules the purge with a standard cron spec or a
// descriptor such as "@every 10m"
func NewOTPCleanup(store ExpiredOTPDeleter, schedule string) (*OTPCleanup, error) {
	c := &OTPCleanup{
		store: store,
		cron:  cron.New(cron.WithLogger(cron.DiscardLogger)),
		now:   time.Now,
	}

	if _, err := c.cron.AddFunc(schedule, c.Run); err != nil {
		return nil, fmt.Errorf("failed to schedule verification code cleanup, %w", err)
	}

	zap.L().Debug("Verification code cleanup attached", zap.String("schedule", schedule))

	return c, nil
}

func (c *OTPCleanup) Start() {
	c.cron.Start()
}

// Stop prevents new runs and waits for a running one to finish
func (c *OTPCleanup) Stop() {
	<-c.cron.Stop().Done()
}

// Run performs a single purge
func (c *OTPCleanup) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := c.store.DeleteExpiredOTPs(ctx, c.now())
	if err != nil {
		zap.L().Error("Failed to clean up expired verification codes", zap.Error(err))
		return
	}

	if n > 0 {
		zap.L().Debug("Cleaned up expired verification codes", zap.Int64("count", n))
	}
}
