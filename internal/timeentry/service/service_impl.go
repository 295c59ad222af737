package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billingengine/internal/clock"
	obsmetrics "github.com/smallbiznis/billingengine/internal/observability/metrics"
	timeentrydomain "github.com/smallbiznis/billingengine/internal/timeentry/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    timeentrydomain.Repository
	Metrics *obsmetrics.BillingMetrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    timeentrydomain.Repository
	metrics *obsmetrics.BillingMetrics
}

func NewService(p ServiceParam) timeentrydomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("timeentry.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Rollover(ctx context.Context, companyID snowflake.ID, currentPeriodEnd, nextPeriodStart time.Time) (int64, error) {
	if currentPeriodEnd.IsZero() || nextPeriodStart.IsZero() {
		return 0, timeentrydomain.ErrInvalidRolloverWindow
	}

	var moved int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entries, err := s.repo.ListUnapproved(ctx, tx, companyID, currentPeriodEnd)
		if err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		for _, entry := range entries {
			start := nextPeriodStart.UTC()
			end := start.Add(entry.Duration())
			if err := s.repo.UpdateWindow(ctx, tx, entry.ID, start, end, now); err != nil {
				return err
			}
			moved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.metrics.AddRolledOver(moved)
	s.log.Info("rolled over unapproved time entries",
		zap.String("company_id", companyID.String()),
		zap.Int64("count", moved),
		zap.Time("current_period_end", currentPeriodEnd),
		zap.Time("next_period_start", nextPeriodStart),
	)
	return moved, nil
}
