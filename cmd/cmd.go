// Package cmd provides the agent command and the one-shot sending tool
package cmd

import (
	"github.com/relex/gotils/config"
)

func init() {
	config.AddParentCmdWithArgs("", "udpsender forwards structured log records as delimited text lines over UDP", &rootCmd, rootCmd.preRun, rootCmd.postRun)
	config.AddCmdWithArgs("run ...", "Run agent: receive records from TCP inputs and forward them", &runCmd, runCmd.run)
	config.AddCmdWithArgs("send ...", "Send records from files once and exit", &sendCmd, sendCmd.run)
}

// Execute parses the command line and runs the specified command
func Execute() {
	config.Execute()
}
