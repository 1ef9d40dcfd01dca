package main

import (
	"os"
)

func main() {
	root, rt := newRootCmd()
	if err := execute(root, rt); err != nil {
		os.Exit(1)
	}
}
