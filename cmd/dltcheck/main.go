package main

import (
	"fmt"
	"os"
)

// ExitFailure is returned for unexpected run failures and bad configuration.
const ExitFailure = 1

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitFailure)
	}
}
