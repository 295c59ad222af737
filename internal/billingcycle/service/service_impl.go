package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	billingcycledomain "github.com/smallbiznis/billingengine/internal/billingcycle/domain"
	companydomain "github.com/smallbiznis/billingengine/internal/company/domain"
	"github.com/smallbiznis/billingengine/internal/config"
	"github.com/smallbiznis/billingengine/pkg/db"
	"github.com/smallbiznis/billingengine/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	CompanyRepo companydomain.Repository
	Engine      *config.EngineConfigHolder
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	companyRepo companydomain.Repository
	engine      *config.EngineConfigHolder
	cyclerepo   repository.Repository[billingcycledomain.CompanyBillingCycle]
}

func NewService(p ServiceParam) billingcycledomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("billingcycle.service"),

		genID:       p.GenID,
		companyRepo: p.CompanyRepo,
		engine:      p.Engine,
		cyclerepo:   repository.ProvideStore[billingcycledomain.CompanyBillingCycle](p.DB),
	}
}

func (s *Service) Resolve(ctx context.Context, companyID snowflake.ID, date time.Time) (string, error) {
	current, err := s.cyclerepo.FindOne(ctx,
		&billingcycledomain.CompanyBillingCycle{CompanyID: companyID},
		repository.WithWhere("effective_date <= ?", date.UTC()),
		repository.WithOrder("effective_date desc"),
	)
	if err != nil {
		return "", err
	}
	if current != nil {
		return current.BillingCycle, nil
	}

	// A concurrent request may have created the default already, and a company
	// whose only cycles start after date still has a cadence.
	existing, err := s.anyCycle(ctx, companyID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.BillingCycle, nil
	}

	return s.createDefault(ctx, companyID)
}

func (s *Service) ValidatePeriod(ctx context.Context, companyID snowflake.ID, period billingcycledomain.Period) error {
	if err := period.Validate(); err != nil {
		return err
	}

	cycles, err := s.cyclerepo.Find(ctx,
		&billingcycledomain.CompanyBillingCycle{CompanyID: companyID},
		repository.WithWhere("effective_date <= ?", period.End.UTC()),
		repository.WithOrder("effective_date asc"),
	)
	if err != nil {
		return err
	}

	covered := false
	for _, cycle := range cycles {
		switch {
		case !cycle.EffectiveDate.After(period.Start):
			covered = true
		case cycle.EffectiveDate.Before(period.End):
			s.log.Warn("billing period spans cycle change",
				zap.String("company_id", companyID.String()),
				zap.Time("period_start", period.Start),
				zap.Time("period_end", period.End),
				zap.Time("cycle_effective_date", cycle.EffectiveDate),
			)
			return billingcycledomain.ErrPeriodSpansCycleChange
		}
	}

	if !covered {
		if _, err := s.Resolve(ctx, companyID, period.Start); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) anyCycle(ctx context.Context, companyID snowflake.ID) (*billingcycledomain.CompanyBillingCycle, error) {
	return s.cyclerepo.FindOne(ctx,
		&billingcycledomain.CompanyBillingCycle{CompanyID: companyID},
		repository.WithOrder("effective_date asc"),
	)
}

func (s *Service) createDefault(ctx context.Context, companyID snowflake.ID) (string, error) {
	company, err := s.companyRepo.FindByID(ctx, s.db, companyID)
	if err != nil {
		return "", err
	}
	if company == nil {
		return "", fmt.Errorf("%w: %s", companydomain.ErrCompanyNotFound, companyID)
	}

	cfg := s.engine.Get()
	cycle := billingcycledomain.CompanyBillingCycle{
		ID:            s.genID.Generate(),
		CompanyID:     companyID,
		BillingCycle:  cfg.DefaultCycle,
		EffectiveDate: cfg.DefaultCycleEffectiveDate.UTC(),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.cyclerepo.Create(ctx, &cycle); err != nil {
		// Lost the race: the winner's row is authoritative.
		existing, readErr := s.anyCycle(ctx, companyID)
		if readErr != nil {
			return "", readErr
		}
		if existing == nil {
			return "", err
		}
		if !db.IsDuplicateKeyErr(err) {
			s.log.Warn("default billing cycle insert failed, using existing cycle",
				zap.String("company_id", companyID.String()),
				zap.Error(err),
			)
		}
		return existing.BillingCycle, nil
	}

	s.log.Info("created default billing cycle",
		zap.String("company_id", companyID.String()),
		zap.String("billing_cycle", cycle.BillingCycle),
		zap.Time("effective_date", cycle.EffectiveDate),
	)
	return cycle.BillingCycle, nil
}
