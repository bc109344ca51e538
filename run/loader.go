package run

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/udpsender/base"
	"github.com/relex/udpsender/defs"
	"github.com/relex/udpsender/input/tcplistener"
	"github.com/relex/udpsender/output/udpsender"
)

// Loader loads configuration from file and prepares the environments to be launched
//
// Output and inputs are exposed in place of a simple main loop to allow customization, see Run()
type Loader struct {
	filepath string // config file path

	Config
	MetricFactory *base.MetricFactory
}

// NewLoaderFromConfigFile loads the config file and prepares metrics to be registered on the given registerer
func NewLoaderFromConfigFile(filepath string, registerer prometheus.Registerer) (*Loader, error) {
	config, configErr := LoadConfigFile(filepath)
	if configErr != nil {
		return nil, configErr
	}

	return &Loader{
		filepath:      filepath,
		Config:        *config,
		MetricFactory: base.NewMetricFactory(defs.MetricPrefix, nil, nil, registerer),
	}, nil
}

// LaunchOutput creates the UDP output. The transport is opened on the first record.
func (loader *Loader) LaunchOutput(ologger logger.Logger) (*udpsender.Output, error) {
	output, err := udpsender.NewOutput(ologger, loader.Output, loader.MetricFactory)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	return output, nil
}

// LaunchInputs starts all inputs in background and returns (list of addresses, shutdown function)
//
// The returned input addresses are final, e.g. assigned random port if it's 0 in config file
//
// The returned shutdown function only shuts down the inputs, not the output. Connections blocked by a full output
// queue are not waited for longer than defs.InputShutdownTimeout.
func (loader *Loader) LaunchInputs(ilogger logger.Logger, output *udpsender.Output) ([]string, func(), error) {
	stopRequest := channels.NewSignalAwaitable()
	inputStoppedSignals := make([]channels.Awaitable, 0, len(loader.Inputs))
	inputAddresses := make([]string, 0, len(loader.Inputs))

	shutdown := func() {
		stopRequest.Signal()
		if len(inputStoppedSignals) == 0 {
			return
		}
		if !channels.AllAwaitables(inputStoppedSignals...).Wait(defs.InputShutdownTimeout) {
			ilogger.Warn("timeout waiting for inputs to stop")
		}
	}

	for index, inputConfig := range loader.Inputs {
		lsnr, addr, err := tcplistener.NewTCPRecordListener(ilogger, inputConfig.Address, inputConfig.Format,
			int(inputConfig.MaxLineSize.Bytes()), output.Write, stopRequest, loader.MetricFactory)
		if err != nil {
			shutdown()
			return nil, nil, fmt.Errorf("inputs[%d]: %w", index, err)
		}
		lsnr.Start()

		inputAddresses = append(inputAddresses, addr)
		inputStoppedSignals = append(inputStoppedSignals, lsnr.Stopped())
	}

	return inputAddresses, shutdown, nil
}
