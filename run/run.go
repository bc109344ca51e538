// Package run runs the actual UDP sender, either as a long-running agent or for one-shot sending
package run

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/relex/gotils/logger"
	"github.com/relex/udpsender/defs"
)

// Run runs the agent until stopped by signals
func Run(configFile string) {
	loader, loaderErr := NewLoaderFromConfigFile(configFile, prometheus.DefaultRegisterer)
	if loaderErr != nil {
		logger.Fatal(loaderErr)
	}

	output, outputErr := loader.LaunchOutput(logger.Root())
	if outputErr != nil {
		logger.Fatal(outputErr)
	}
	addresses, shutdownInputs, inputErr := loader.LaunchInputs(logger.Root(), output)
	if inputErr != nil {
		output.Stop()
		logger.Fatal(inputErr)
	}

	runLogger := logger.WithField(defs.LabelComponent, "Launcher")
	runLogger.Infof("listening on %v, forwarding to %s", addresses, output.String())

	// wait for shutdown signal
	{
		sigChan := make(chan os.Signal, 10)
		signal.Notify(sigChan, syscall.SIGINT)
		signal.Notify(sigChan, syscall.SIGTERM)
		s := <-sigChan
		runLogger.Infof("received %s, shutting down", s)
	}

	shutdownInputs()
	output.Stop()
	runLogger.Info("clean exit")
}
