package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/temirov/llmctx/internal/cli"
	"github.com/temirov/llmctx/internal/utils"
)

// main is the entry point for the llmctx command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(os.Getenv(utils.EnvironmentPrefix + "_" + utils.LogLevelVariableSuffix))
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer func() { _ = loggerInstance.Sync() }()
	if applicationExecutionError := cli.Execute(loggerInstance); applicationExecutionError != nil {
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage, zap.Error(applicationExecutionError))
	}
}
