// Package node assembles a garage node from its configuration and runs the
// control loop.
//
// One goroutine owns everything. Each Runner.Tick applies queued local
// inputs, advances the actuator timers, supervises the network attachment,
// serves at most one pending request, redraws the status display and hands
// the status snapshot to telemetry. Library goroutines (mDNS, MQTT) never
// touch attachment or actuator state.
package node
