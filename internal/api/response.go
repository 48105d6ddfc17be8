package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/muurk/garagenode/internal/flatobj"
)

// Response messages.
const (
	msgDoorOpen        = "Door open triggered"
	msgDoorClose       = "Door close triggered"
	msgDoorAlreadyOpen = "Door is already open"
	msgDoorAlreadyShut = "Door is already closed"
	msgDoorUnknown     = "Unknown door action. Use 'open' or 'close'"
	msgLampOn          = "Lamp on"
	msgLampOff         = "Lamp off"
	msgLampUnknown     = "Unknown lamp action. Use 'on' or 'off'"
	msgDeviceUnknown   = "Unknown device. Use 'door' or 'lamp'"
	msgNotFound        = "Not found"
	msgTimeout         = "Request timeout"
	msgTooLarge        = "Request body too large"
	msgBadRequest      = "Malformed request"
	msgMalformedBody   = "Malformed body: "
)

// Response is a status code and a flat-object body.
type Response struct {
	Code int
	Body []byte
}

func ok(message string) Response {
	return result(http.StatusOK, "ok", message)
}

func fail(code int, message string) Response {
	return result(code, "error", message)
}

func result(code int, outcome, message string) Response {
	body := flatobj.NewEncoder().
		String("result", outcome).
		String("message", message).
		Bytes()
	return Response{Code: code, Body: body}
}

// Message returns the message member of a result body, or "" for other
// bodies.
func (r Response) Message() string {
	obj, err := flatobj.Decode(r.Body)
	if err != nil {
		return ""
	}
	return obj.String("message")
}

// WriteTo frames the response and writes it in a single write:
//
//	HTTP/1.1 <code> <reason>\r\n
//	Content-Type: application/json\r\n
//	Connection: close\r\n
//	Content-Length: <n>\r\n
//	\r\n
//	<body>
func (r Response) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	sb.WriteString("HTTP/1.1 ")
	sb.WriteString(strconv.Itoa(r.Code))
	sb.WriteByte(' ')
	sb.WriteString(reasonPhrase(r.Code))
	sb.WriteString("\r\nContent-Type: application/json\r\nConnection: close\r\nContent-Length: ")
	sb.WriteString(strconv.Itoa(len(r.Body)))
	sb.WriteString("\r\n\r\n")
	sb.Write(r.Body)

	n, err := io.WriteString(w, sb.String())
	if err != nil {
		return int64(n), fmt.Errorf("failed to write %d response: %w", r.Code, err)
	}
	return int64(n), nil
}

func reasonPhrase(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "Unknown"
}
