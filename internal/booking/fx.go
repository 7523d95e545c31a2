package booking

import (
	"github.com/montessori/ecole/internal/booking/repository"
	"github.com/montessori/ecole/internal/booking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("booking.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
