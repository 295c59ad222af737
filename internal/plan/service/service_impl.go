package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/smallbiznis/billingengine/internal/plan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	PlanRepo plandomain.Repository
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	planRepo plandomain.Repository
}

func NewService(p ServiceParam) plandomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("plan.service"),

		planRepo: p.PlanRepo,
	}
}

func (s *Service) ListForPeriod(ctx context.Context, companyID snowflake.ID, start, end time.Time) ([]plandomain.CompanyBillingPlan, error) {
	plans, err := s.planRepo.ListOverlapping(ctx, s.db, companyID, start, end)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: company %s between %s and %s",
			plandomain.ErrNoApplicablePlan,
			companyID,
			start.UTC().Format(time.RFC3339),
			end.UTC().Format(time.RFC3339),
		)
	}

	s.log.Debug("loaded billing plans",
		zap.String("company_id", companyID.String()),
		zap.Int("plan_count", len(plans)),
	)
	return plans, nil
}
