// Package api embeds the OpenAPI description of the registry HTTP API.
package api

import _ "embed"

// Spec is the OpenAPI 3 document requests are validated against.
//
//go:embed discovery-server.openapi.yaml
var Spec []byte
