package main

import _ "embed"

// embeddedManifest holds the install manifest baked in at build time.
// The packaging step overwrites setup.yaml with the release's product
// metadata before compiling.
//
//go:embed setup.yaml
var embeddedManifest []byte
