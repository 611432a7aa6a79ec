package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/sanjail3/Influencer-AI-App/internal/config"
	"github.com/sanjail3/Influencer-AI-App/internal/logger"
	"github.com/sanjail3/Influencer-AI-App/internal/migration"
	"github.com/sanjail3/Influencer-AI-App/internal/server"
	"github.com/sanjail3/Influencer-AI-App/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// HTTP surface plus every feature module it serves
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
