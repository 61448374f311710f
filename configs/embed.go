// Package configs provides the embedded configuration template for osai.
//
// The template is embedded at build time so `osai config init` works from
// any distribution. Configuration hierarchy (see internal/config Load):
//  1. Defaults for the host OS
//  2. User config ($XDG_CONFIG_HOME/osai/config.yaml)
//  3. Environment variables (OSAI_*)
package configs

import _ "embed"

// UserConfigTemplate is the commented template written by `osai config init`.
//
//go:embed config.example.yaml
var UserConfigTemplate string
