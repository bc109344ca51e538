package cmd

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/relex/gotils/logger"
)

type rootCommandState struct {
	CPUProfile string `name:"cpuprofile" help:"Write CPU profile to file."`
	MemProfile string `name:"memprofile" help:"Write memory profile to file on exit."`

	cpuProfileFile *os.File
}

var rootCmd rootCommandState

func (cmd *rootCommandState) preRun() {
	if cmd.CPUProfile == "" {
		return
	}
	cmd.cpuProfileFile = createProfileFile("CPU", cmd.CPUProfile)
	logger.Infof("start CPU profiling %s", cmd.CPUProfile)
	if err := pprof.StartCPUProfile(cmd.cpuProfileFile); err != nil {
		logger.Fatalf("failed to start CPU profiling: %s", err.Error())
	}
}

func (cmd *rootCommandState) postRun() {
	if cmd.cpuProfileFile != nil {
		pprof.StopCPUProfile()
		cmd.cpuProfileFile.Close()
	}

	if cmd.MemProfile != "" {
		f := createProfileFile("memory", cmd.MemProfile)
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			logger.Errorf("failed to write memory profile: %s", err.Error())
		}
		f.Close()
	}
}

func createProfileFile(kind string, path string) *os.File {
	f, err := os.Create(path)
	if err != nil {
		logger.Fatalf("failed to create %s profile %s: %s", kind, path, err.Error())
	}
	return f
}
