package preinscription

import (
	"github.com/montessori/ecole/internal/preinscription/repository"
	"github.com/montessori/ecole/internal/preinscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("preinscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
