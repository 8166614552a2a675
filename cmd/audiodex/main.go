// Command audiodex serves content-based music descriptor search.
//
// Usage:
//
//	audiodex [flags] <command>
//
// Commands:
//
//	serve   - Run the HTTP API server
//	import  - Bulk-load JSON-lines descriptor documents into a collection
//	plan    - Print the store pipeline a search would run
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
