package main

import (
	"fmt"
	"os"

	"tool-advisor/internal/rulesctl"
)

func main() {
	root := rulesctl.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
