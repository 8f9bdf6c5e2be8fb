package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/learnlyhq/learnly/internal/config"
	"github.com/learnlyhq/learnly/internal/migration"
	"github.com/learnlyhq/learnly/internal/observability"
	"github.com/learnlyhq/learnly/internal/server"
	"github.com/learnlyhq/learnly/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
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
