package api

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/garagenode/internal/actuator"
	"github.com/muurk/garagenode/internal/flatobj"
	"github.com/muurk/garagenode/internal/logging"
	"github.com/muurk/garagenode/internal/netmgr"
)

// Network provides the attachment view for the status snapshot.
type Network interface {
	Snapshot() netmgr.Info
}

// Refresher redraws the status display after a command changes state.
type Refresher interface {
	Refresh()
}

// Config configures a Dispatcher.
type Config struct {
	Routes Routes
	Limits Limits
	Now    func() time.Time
}

// Dispatcher answers one request per accepted connection.
type Dispatcher struct {
	ctrl    actuator.Controller
	network Network
	display Refresher
	routes  Routes
	limits  Limits
	now     func() time.Time
}

// NewDispatcher creates a dispatcher. display may be nil.
func NewDispatcher(ctrl actuator.Controller, network Network, display Refresher, cfg Config) *Dispatcher {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Dispatcher{
		ctrl:    ctrl,
		network: network,
		display: display,
		routes:  cfg.Routes.withDefaults(),
		limits:  cfg.Limits.withDefaults(),
		now:     cfg.Now,
	}
}

// Serve reads one request from conn, answers it and closes conn. Failures
// are logged; none of them propagate to the control loop.
func (d *Dispatcher) Serve(conn net.Conn) {
	log := logging.ForConn(remoteAddr(conn))
	defer func() {
		_ = conn.Close()
		log.Debug("Connection closed")
	}()

	var resp Response
	req, err := ReadRequest(conn, d.routes, d.limits)
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		log.Warn("Request body exceeds limit",
			zap.Int("declared", req.DeclaredLength),
			zap.Int("limit", d.limits.MaxBodyBytes),
		)
		resp = fail(http.StatusRequestEntityTooLarge, msgTooLarge)
	case errors.Is(err, ErrLineTooLong), errors.Is(err, ErrTooManyHeaders):
		log.Warn("Rejecting malformed request", zap.Error(err))
		resp = fail(http.StatusBadRequest, msgBadRequest)
	case err != nil:
		log.Warn("Request read failed", zap.Error(err))
		resp = fail(http.StatusRequestTimeout, msgTimeout)
	default:
		log.Info("Request received",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Int("content_length", req.DeclaredLength),
		)
		if req.Body != nil {
			log.Debug("Request body", logging.Printable("body", req.Body))
		}
		resp = d.Handle(req)
	}

	if err := conn.SetWriteDeadline(time.Now().Add(d.limits.WriteTimeout)); err != nil {
		log.Debug("Failed to set write deadline", zap.Error(err))
	}
	if _, err := resp.WriteTo(conn); err != nil {
		log.Error("Failed to send response", zap.Error(err))
		return
	}
	log.Info("Response sent", zap.Int("status_code", resp.Code), zap.String("message", resp.Message()))
}

// Handle produces the response for a request that was read successfully.
func (d *Dispatcher) Handle(req *PendingRequest) Response {
	switch req.Kind {
	case KindStatus:
		return d.status()
	case KindSet:
		return d.set(req)
	default:
		logging.ForConn(req.RemoteAddr).Info("Unknown request", zap.String("line", req.Line))
		return fail(http.StatusNotFound, msgNotFound)
	}
}

func (d *Dispatcher) status() Response {
	return Response{Code: http.StatusOK, Body: d.Snapshot()}
}

// Snapshot encodes the current actuator and network state in the status
// response format.
func (d *Dispatcher) Snapshot() []byte {
	light := d.ctrl.Light()
	door := "open"
	if d.ctrl.DoorClosed() {
		door = "closed"
	}
	lamp := "off"
	if light.On {
		lamp = "on"
	}

	info := d.network.Snapshot()
	return flatobj.NewEncoder().
		String("door", door).
		String("light", lamp).
		Bool("night", d.ctrl.Night()).
		Int("light_timeout_ms", light.Remaining(d.now()).Milliseconds()).
		Begin("network").
		Bool("connected", info.Connected).
		String("ip", ipString(info.IP)).
		String("gateway", ipString(info.Gateway)).
		String("subnet", maskString(info.Mask)).
		Int("rssi", int64(info.RSSI)).
		String("ssid", info.SSID).
		End().
		Bytes()
}

func (d *Dispatcher) set(req *PendingRequest) Response {
	obj, err := flatobj.Decode(req.Body)
	if errors.Is(err, flatobj.ErrEmpty) {
		obj = flatobj.Object{}
	} else if err != nil {
		logging.ForConn(req.RemoteAddr).Warn("Malformed set body", zap.Error(err))
		return fail(http.StatusBadRequest, msgMalformedBody+err.Error())
	}

	device := strings.ToLower(obj.String("device"))
	action := strings.ToLower(obj.String("action"))
	logging.Debug("Set command",
		zap.String("device", device),
		zap.String("action", action),
	)

	switch device {
	case "door":
		return d.door(action)
	case "lamp":
		return d.lamp(action, obj)
	default:
		return fail(http.StatusBadRequest, msgDeviceUnknown)
	}
}

func (d *Dispatcher) door(action string) Response {
	closed := d.ctrl.DoorClosed()
	switch action {
	case "open":
		if !closed {
			return fail(http.StatusBadRequest, msgDoorAlreadyOpen)
		}
		d.ctrl.TriggerDoor(actuator.SourceAPI)
		return ok(msgDoorOpen)
	case "close":
		if closed {
			return fail(http.StatusBadRequest, msgDoorAlreadyShut)
		}
		d.ctrl.TriggerDoor(actuator.SourceAPI)
		return ok(msgDoorClose)
	default:
		return fail(http.StatusBadRequest, msgDoorUnknown)
	}
}

// maxLampSeconds caps a requested lamp duration at one day
const maxLampSeconds = int64(24 * time.Hour / time.Second)

func (d *Dispatcher) lamp(action string, obj flatobj.Object) Response {
	switch action {
	case "on":
		def := int64(d.ctrl.DefaultLightDuration() / time.Second)
		secs := flatobj.DurationSeconds(obj, "duration", def)
		switch {
		case secs <= 0:
			secs = def
		case secs > maxLampSeconds:
			secs = maxLampSeconds
		}
		d.ctrl.SetLightDuration(time.Duration(secs) * time.Second)
		d.ctrl.SetLight(true)
		logging.Info("Lamp on requested", zap.Int64("duration_s", secs))
		d.refresh()
		return ok(msgLampOn)
	case "off":
		d.ctrl.SetLight(false)
		logging.Info("Lamp off requested")
		d.refresh()
		return ok(msgLampOff)
	default:
		return fail(http.StatusBadRequest, msgLampUnknown)
	}
}

func (d *Dispatcher) refresh() {
	if d.display != nil {
		d.display.Refresh()
	}
}

func ipString(ip net.IP) string {
	if ip == nil || ip.To4() == nil {
		return "0.0.0.0"
	}
	return ip.To4().String()
}

func maskString(mask net.IPMask) string {
	if len(mask) != net.IPv4len {
		return "0.0.0.0"
	}
	return net.IP(mask).String()
}
