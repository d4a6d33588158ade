package sessions

// Session represents a negotiated MCP session. Implementations MUST be safe
// for concurrent use.
type Session interface {
	SessionID() string
	UserID() string
	// ProtocolVersion is the negotiated MCP protocol version baked into the session.
	ProtocolVersion() string
	// ClientInfo is the identity the client reported during initialize.
	ClientInfo() ClientInfo
	// Capabilities is the capability set the client advertised.
	Capabilities() CapabilitySet
}

// ClientInfo identifies the client connecting to the server.
type ClientInfo struct {
	Name    string
	Version string
}

// CapabilitySet captures the immutable capability surface negotiated at
// session creation.
type CapabilitySet struct {
	Roots            bool
	RootsListChanged bool
	Sampling         bool
	Elicitation      bool
}

// SessionState is the lifecycle state of a session.
type SessionState string

const (
	// SessionStatePending is the state between the initialize response and
	// the client's notifications/initialized.
	SessionStatePending SessionState = "pending"
	// SessionStateOpen is the state after notifications/initialized.
	SessionStateOpen SessionState = "open"
)
