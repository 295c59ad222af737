package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	billingcycledomain "github.com/smallbiznis/billingengine/internal/billingcycle/domain"
	discountdomain "github.com/smallbiznis/billingengine/internal/discount/domain"
	obsmetrics "github.com/smallbiznis/billingengine/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       discountdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       discountdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewService(p ServiceParam) discountdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("discount.service"),
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Apply(ctx context.Context, companyID snowflake.ID, period billingcycledomain.Period, totalAmount int64) (discountdomain.Applied, error) {
	discounts, err := s.repo.ListActive(ctx, s.db, companyID, period.Start, period.End)
	if err != nil {
		return discountdomain.Applied{}, err
	}

	applied := discountdomain.Applied{
		Discounts:   make([]discountdomain.AppliedDiscount, 0, len(discounts)),
		Adjustments: []discountdomain.Adjustment{},
	}

	var discountTotal float64
	for _, d := range discounts {
		var amount float64
		switch d.DiscountType {
		case discountdomain.DiscountTypePercentage:
			amount = float64(totalAmount) * d.Value
		case discountdomain.DiscountTypeFixed:
			amount = d.Value
		default:
			s.log.Warn("skipping discount with unknown type",
				zap.String("discount_id", d.ID.String()),
				zap.String("discount_type", string(d.DiscountType)),
			)
			continue
		}
		discountTotal += amount
		applied.Discounts = append(applied.Discounts, discountdomain.AppliedDiscount{Discount: d, Amount: amount})
		s.obsMetrics.RecordDiscount(ctx, string(d.DiscountType))
	}

	applied.FinalAmount = float64(totalAmount) - discountTotal
	for _, adj := range applied.Adjustments {
		applied.FinalAmount += adj.Amount
	}

	s.log.Debug("applied discounts",
		zap.String("company_id", companyID.String()),
		zap.Int("discount_count", len(applied.Discounts)),
		zap.Float64("final_amount", applied.FinalAmount),
	)
	return applied, nil
}
