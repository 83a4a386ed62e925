package main

import (
	"os"
)

func main() {
	root := createRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
