package docs

import _ "embed"

// OpenAPI is the public API description.
//
//go:embed openapi.yml
var OpenAPI []byte
