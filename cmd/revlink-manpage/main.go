package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/revlink/cmd/revlink"
	"github.com/arthur-debert/revlink/internal/version"
)

func main() {
	rootCmd := revlink.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "REVLINK",
		Section: "1",
		Source:  "revlink " + version.Short(),
		Manual:  "revlink manual",
	}

	if err := doc.GenMan(rootCmd, header, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
