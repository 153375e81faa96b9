// Package client contains the client's connection to the outside world: the
// JSON/HTTP remote client used by the sync orchestrator and the bootstrap of
// the local SQLite store.
//
// Remote failures map onto sentinel errors matched with errors.Is:
// ErrUnavailable for transport failures and gateway errors, ErrUnauthorized
// for rejected credentials, ErrMalformedPayload for replies that do not decode
// against the tracked tables. Any other non-2xx reply is a *StatusError.
package client
