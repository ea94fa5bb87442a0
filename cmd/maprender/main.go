// Command maprender runs the tile-rendering HTTP server and its supporting
// subcommands (serve, convert).
package main

import (
	"github.com/freemap-slovakia/maprender/internal/cmd"
)

func main() {
	cmd.Execute()
}
