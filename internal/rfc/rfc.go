// Package rfc defines the remote function call contract this module consumes
// and a pure-Go transport speaking SAP's ICF SOAP gateway. The rest of the
// module only depends on the Caller interface; connection handling, timeouts
// and cancellation belong to the transport.
package rfc

import "context"

// Known remote function names.
const (
	// FuncReadTableBBP is the preferred table-read function; unlike the
	// classic one it is released for remote use on most systems.
	FuncReadTableBBP = "BBP_RFC_READ_TABLE"
	// FuncReadTable is the classic table-read function.
	FuncReadTable = "RFC_READ_TABLE"
	// FuncPing echoes a message back from the remote system.
	FuncPing = "STFC_CONNECTION"
)

// Caller invokes a named remote function with keyword parameters and returns
// its export parameters as a loosely typed structure. Implementations block
// until the remote system responds; cancellation flows through ctx.
type Caller interface {
	Call(ctx context.Context, function string, params map[string]any) (map[string]any, error)
}
