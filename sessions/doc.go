// Package sessions defines the session abstraction shared by the transport,
// the engine and capability code. A session represents the negotiated protocol
// version, the peer's identity and the client information supplied during
// initialize.
//
// The stdio transport owns exactly one session per process: it is created by
// a successful initialize request and lives until the input stream closes.
// Nothing about a session is persisted; sessions are plain immutable values
// identified by a random UUID.
//
// Capability code receives the Session on every call and MAY use it to scope
// behaviour per user or per client, although the echo tool does not.
package sessions
