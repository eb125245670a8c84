// flashdeconv - top-down mass spectrum deconvolution tool
package main

import (
	"fmt"
	"os"

	"github.com/jeongkyowon/flashdeconv/cmd/flashdeconv/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
