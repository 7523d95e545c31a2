package justificatif

import (
	"github.com/montessori/ecole/internal/justificatif/repository"
	"github.com/montessori/ecole/internal/justificatif/service"
	"go.uber.org/fx"
)

var Module = fx.Module("justificatif.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
