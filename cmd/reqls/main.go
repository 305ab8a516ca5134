package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"reqls/internal/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode reports err on stderr and returns the process exit status.
func exitCode(err error) int {
	if stderrors.Is(err, errDiagnosticsFound) {
		return 1
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var e *errors.Error
	if stderrors.As(err, &e) && e.Details != nil {
		fmt.Fprintf(os.Stderr, "  details: %v\n", e.Details)
	}
	for _, fix := range errors.GetSuggestedFixes(errors.CodeOf(err)) {
		if fix.Command != "" {
			fmt.Fprintf(os.Stderr, "  %s: $ %s\n", fix.Description, fix.Command)
		} else {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", fix.Description, fix.Path)
		}
	}
	return 2
}
