package tariff

import (
	"github.com/montessori/ecole/internal/tariff/repository"
	"github.com/montessori/ecole/internal/tariff/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tariff.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
