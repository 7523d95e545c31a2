package reinscription

import (
	"github.com/montessori/ecole/internal/reinscription/repository"
	"github.com/montessori/ecole/internal/reinscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reinscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
