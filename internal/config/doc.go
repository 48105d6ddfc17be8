// Package config holds the two YAML files of the project.
//
// Config is the node's startup configuration: the defaults from Default,
// overlaid by the file given with --config, overlaid by GARAGE_*
// environment variables, then validated. The node never writes it back; a
// configuration that fails Validate is the only fatal startup condition.
//
// Registry is the operator-side list of nodes that garage-ctl has
// discovered, with optional nicknames so a node can be addressed by name.
// It is stored in a platform-appropriate location:
//   - Linux: $XDG_CONFIG_HOME/garagenode/nodes.yaml or $HOME/.config/garagenode/nodes.yaml
//   - macOS: $HOME/.config/garagenode/nodes.yaml
//   - Windows: %LOCALAPPDATA%\garagenode\nodes.yaml
package config
