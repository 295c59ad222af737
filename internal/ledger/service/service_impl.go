package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billingengine/internal/clock"
	ledgerdomain "github.com/smallbiznis/billingengine/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/billingengine/internal/observability/metrics"
	"github.com/smallbiznis/billingengine/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	obsMetrics *obsmetrics.Metrics

	txrepo repository.Repository[ledgerdomain.Transaction]
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("ledger.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		obsMetrics: p.ObsMetrics,

		txrepo: repository.ProvideStore[ledgerdomain.Transaction](p.DB),
	}
}

func (s *Service) AppendTx(ctx context.Context, tx *gorm.DB, entry ledgerdomain.Transaction) (ledgerdomain.Transaction, error) {
	if tx == nil {
		return ledgerdomain.Transaction{}, ledgerdomain.ErrMissingTx
	}
	if entry.CompanyID == 0 {
		return ledgerdomain.Transaction{}, ledgerdomain.ErrInvalidCompany
	}

	entry.Type = ledgerdomain.TransactionType(strings.TrimSpace(string(entry.Type)))
	if entry.Type == "" {
		return ledgerdomain.Transaction{}, ledgerdomain.ErrInvalidType
	}
	switch entry.Status {
	case ledgerdomain.TransactionStatusPending, ledgerdomain.TransactionStatusCompleted:
	case "":
		entry.Status = ledgerdomain.TransactionStatusCompleted
	default:
		return ledgerdomain.Transaction{}, ledgerdomain.ErrInvalidStatus
	}
	if entry.Metadata == nil {
		entry.Metadata = datatypes.JSONMap{}
	}

	entry.ID = s.genID.Generate()
	entry.CreatedAt = s.clock.Now()

	if err := s.txrepo.WithTrx(tx).Create(ctx, &entry); err != nil {
		return ledgerdomain.Transaction{}, err
	}

	s.obsMetrics.RecordLedgerEntry(ctx, string(entry.Type))
	s.log.Info("ledger transaction appended",
		zap.String("transaction_id", entry.ID.String()),
		zap.String("company_id", entry.CompanyID.String()),
		zap.String("type", string(entry.Type)),
		zap.Int64("amount", entry.Amount),
	)
	return entry, nil
}

func (s *Service) ListForInvoice(ctx context.Context, invoiceID snowflake.ID) ([]ledgerdomain.Transaction, error) {
	items, err := s.txrepo.Find(ctx, &ledgerdomain.Transaction{InvoiceID: &invoiceID},
		repository.WithOrder("created_at ASC, id ASC"),
	)
	if err != nil {
		return nil, err
	}

	out := make([]ledgerdomain.Transaction, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}
