package family

import (
	"github.com/montessori/ecole/internal/family/repository"
	"github.com/montessori/ecole/internal/family/service"
	"go.uber.org/fx"
)

var Module = fx.Module("family.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
