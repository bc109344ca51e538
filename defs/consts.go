package defs

// Common labels for logging
const (
	LabelComponent = "component"
	LabelPart      = "part"

	LabelLocal   = "local"
	LabelRemote  = "remote"
	LabelAddress = "address"
	LabelClient  = "client"

	LabelAttempt = "attempt"
)

// MetricPrefix is prepended to all metric names of the program
const MetricPrefix = "udpsender_"
