// Command xsd2owl translates XML Schema documents into OWL ontologies
// serialized as Turtle.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "xsd2owl:", err)
		os.Exit(1)
	}
}
