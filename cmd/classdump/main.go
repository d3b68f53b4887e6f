// Command classdump decodes a single .class file and prints its resolved
// type metadata: class name, access flags and versions, superclass and
// interfaces, fields, and methods.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}
