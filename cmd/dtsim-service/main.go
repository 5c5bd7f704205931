// Command dtsim-service is the long-running/batch simulation service:
// it runs simulations against a configured database and object
// storage backend, serves a read-only web view of persisted runs, and
// runs batch sweeps across scenario variants.
package main

import (
	"github.com/seojinpark/dtSim/cmd/dtsim-service/cmd"
)

func main() {
	cmd.Execute()
}
