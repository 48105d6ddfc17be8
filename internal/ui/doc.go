// Package ui renders garage-ctl output with Lipgloss and Bubble Tea.
//
// One-shot commands print a header, then a result box or the status
// panel, through a Printer. The status panel shows the node's actuator and
// network state next to a copy of its front-panel matrix.
//
// The watch screen is the one interactive component: a Bubble Tea model
// that polls the node, redraws the panel and lets the user toggle the lamp.
//
// Logging stays silent unless GARAGE_LOG_LEVEL is set, so zap output does
// not interleave with the rendered boxes.
package ui
