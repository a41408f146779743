package main

import (
	"os"

	"github.com/awnumar/memguard"

	"github.com/kevintanjc/bleep/cmd/bleep/cmd"
)

func main() {
	err := cmd.Execute()
	// Wipe enclave keys before exiting; os.Exit skips deferred calls.
	memguard.Purge()
	if err != nil {
		os.Exit(1)
	}
}
