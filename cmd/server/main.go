package main

import (
	"github.com/atlas-grag/atlas/internal/server"
	"github.com/atlas-grag/atlas/internal/util"
	"github.com/atlas-grag/atlas/pkg/logger"
	"github.com/atlas-grag/atlas/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
