// Package telemetry publishes the node's status snapshot over MQTT.
//
// Topics, for a prefix of "garage/north":
//
//	garage/north/status        retained status snapshot
//	garage/north/availability  retained "online" / "offline" (last will)
//
// The paho client connects and reconnects on its own goroutines. The control
// loop only hands over byte snapshots and never waits on the broker.
package telemetry
