package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomledger/internal/cache"
	"github.com/smallbiznis/roomledger/internal/clock"
	"github.com/smallbiznis/roomledger/internal/config"
	"github.com/smallbiznis/roomledger/internal/lock"
	"github.com/smallbiznis/roomledger/internal/migration"
	"github.com/smallbiznis/roomledger/internal/observability"
	"github.com/smallbiznis/roomledger/internal/server"
	"github.com/smallbiznis/roomledger/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		cache.Module,
		lock.Module,
		clock.Module,
		migration.Module,

		// Domains and HTTP
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
