package main

import (
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
	"github.com/lite-lake/dnssync/internal/interfaces/cli"
)

func main() {
	logger.Init(logger.ConfigFromEnv())

	cli.Execute()
}
