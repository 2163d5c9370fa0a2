// go-docref serves and inspects document collections. Changes are staged
// and committed in batches through a collection reference.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
