// Package cli provides the interactive GrowKeeper command-line client.
//
// It wires configuration, the local SQLite store, the sync services and an
// interactive REPL. Farm data is edited locally and works offline; a
// background watcher pings the server and flips the online/offline mode,
// starting a sync when connectivity returns.
//
// Commands:
//   - register / login / logout
//   - list <table>, delete <table> <id>
//   - add-location, add-crop, add-record, add-photo <record_id> <path>
//   - sync, status
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
