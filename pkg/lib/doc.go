// Package lib provides a Go SDK to monitor and control staged task execution
// backends programmatically.
//
// It is the same dashboard the stagewatch CLI uses, without the terminal or web
// rendering: fetch the node status cards, the stage tree and the error log,
// change the backend refresh interval, inject tasks, and manage the persisted
// dashboard UI state.
//
// # Quick Start
//
//	client, err := lib.New(ctx, lib.Config{BackendURL: "http://127.0.0.1:5000"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	d, err := client.Dashboard(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, c := range d.Cards {
//	    fmt.Printf("%s: %d%% (%d failed)\n", c.Name, c.Progress, c.Failed)
//	}
//
// # Partial failures
//
// A dashboard fetch queries the status, the structure and the errors
// concurrently. A failing endpoint doesn't fail the whole fetch, the failed
// endpoints are listed in [Dashboard].StaleEndpoints. The single purpose methods
// ([Client.Status], [Client.Structure], [Client.Errors]) fail when their
// endpoint fails.
//
// # UI state
//
// Collapsed tree nodes, the card order, the hidden chart series and the theme
// are persisted in a SQLite database (default ~/.stagewatch/stagewatch.db), or
// only in memory with [Config].InMemoryState.
//
// # Errors
//
// Errors can be checked with [errors.Is] against [ErrNotFound], [ErrNotValid]
// and [ErrNotConfirmed].
package lib
