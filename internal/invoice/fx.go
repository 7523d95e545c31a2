package invoice

import (
	"github.com/montessori/ecole/internal/invoice/repository"
	"github.com/montessori/ecole/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
