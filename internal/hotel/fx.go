package hotel

import (
	"github.com/smallbiznis/roomledger/internal/hotel/repository"
	"github.com/smallbiznis/roomledger/internal/hotel/service"
	"go.uber.org/fx"
)

var Module = fx.Module("hotel.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
