package clientbilling

import (
	"github.com/smallbiznis/billingengine/internal/clientbilling/repository"
	"github.com/smallbiznis/billingengine/internal/clientbilling/service"
	"go.uber.org/fx"
)

var Module = fx.Module("clientbilling.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
