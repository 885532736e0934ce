package main

import (
	"fmt"
	"os"

	"github.com/temirov/containerboard/cmd/server"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the containerboard server application.
func main() {
	if executionError := server.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
