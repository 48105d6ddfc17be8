package telemetry

// Availability payloads.
const (
	availabilityOnline  = "online"
	availabilityOffline = "offline"
)

func statusTopic(prefix string) string { return prefix + "/status" }

func availabilityTopic(prefix string) string { return prefix + "/availability" }
