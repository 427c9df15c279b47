// Command edi997 validates X12 997 Functional Acknowledgments and reconciles them
// against outbound transactions.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/edi997/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			// Commands report their own errors.
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
}
