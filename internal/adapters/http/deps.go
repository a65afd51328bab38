package http

import (
	"github.com/nats-io/nats.go"
	"github.com/pointlab/poinavi/internal/adapters/postgres"
	"github.com/pointlab/poinavi/internal/adapters/valkey"
	"github.com/pointlab/poinavi/internal/core/ports"
	"github.com/pointlab/poinavi/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Places    *usecases.PlaceService
	Tags      *usecases.TagService
	SearchLog ports.SearchLogRepository
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache
}
