package telemetry

import "errors"

// Use errors.Is to check for these.
var (
	// ErrNoBroker is returned when telemetry is enabled without a broker URL.
	ErrNoBroker = errors.New("telemetry: broker not configured")

	// ErrInvalidQoS is returned for a QoS level above 2.
	ErrInvalidQoS = errors.New("telemetry: invalid QoS level")

	// ErrInvalidTopic is returned for an empty topic prefix or one with
	// wildcards.
	ErrInvalidTopic = errors.New("telemetry: invalid topic prefix")
)
