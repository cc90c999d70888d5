package core

import _ "embed"

//go:embed prelude.loom
var preludeSource string
