package errors

import (
	"fmt"
	"io"
	"sort"
)

// Exit codes per error class.
const (
	ExitOK       = 0
	ExitFailure  = 1 // anything that should page a human
	ExitUsage    = 2 // bad invocation
	ExitConfig   = 3 // unrecoverable configuration
	ExitPipeline = 4 // per-file fatal (header mismatch, 4xx, exhausted retries)
)

// ExitCode maps an error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch GetCode(err) {
	case "":
		return ExitFailure
	case EUsage:
		return ExitUsage
	case EConfigNotFound, EConfigInvalid:
		return ExitConfig
	case EHeaderMismatch, ERaggedRow, EEmptyFile, EUploadFatal,
		EUploadExhausted, EAuthInvalid, ELookupFailed, EPostFailed:
		return ExitPipeline
	default:
		return ExitFailure
	}
}

// PrintOptions controls error output formatting.
type PrintOptions struct {
	// Verbose includes the wrapped cause chain and all detail keys.
	Verbose bool
}

// Print writes err to w in the stable "CODE: message" format.
func Print(w io.Writer, err error) {
	PrintWithOptions(w, err, PrintOptions{})
}

// PrintWithOptions writes err to w, with detail context on following lines.
// Details are printed in sorted key order so output is deterministic.
func PrintWithOptions(w io.Writer, err error, opts PrintOptions) {
	if err == nil {
		return
	}
	fe, ok := AsFerryError(err)
	if !ok {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "%s\n", fe.Error())

	keys := make([]string, 0, len(fe.Details))
	for k := range fe.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, fe.Details[k])
	}

	if opts.Verbose && fe.Cause != nil {
		fmt.Fprintf(w, "  cause: %v\n", fe.Cause)
	}
}
