package seed

import _ "embed"

// Default is the built-in fixture used when no file is given
//
//go:embed default.yaml
var Default []byte
