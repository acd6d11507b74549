// Command fattree builds fat-tree topologies, assigns their addresses, and
// serves them for inspection.
package main

import "github.com/sarchlab/fattree/cmd/fattree/cmd"

func main() {
	cmd.Execute()
}
