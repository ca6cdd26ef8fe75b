// Command manipctl drives Sutter ROE-200 micromanipulator controllers from
// the command line.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
