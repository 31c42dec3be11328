package main

import _ "embed"

// embeddedConfig holds the YAML configuration embedded at build time.
// embed_config.yaml is a staging file; packaging scripts may overwrite it
// with site defaults such as the sar path or decoder layouts.
//
//go:embed embed_config.yaml
var embeddedConfig []byte
