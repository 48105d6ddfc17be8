// Package flatobj implements the small key/value body format spoken by the
// node: a brace-delimited object of quoted keys mapped to quoted strings or
// bare scalars (numbers, true/false, words).
//
// The grammar is deliberately restricted. Arrays are rejected, escapes are
// limited to \" and \\, and only one level of nested object is accepted. A
// nested group is flattened into dotted keys, so the status snapshot
// {"network":{"ip":"10.0.0.2"}} decodes to the key "network.ip".
//
// Absent keys never produce an error; accessors return zero values.
package flatobj
