// The main package for the policyscrape executable.
package main

import (
	"github.com/policylab/policyscrape/cmd"
)

func main() {
	cmd.Execute()
}
