package sessions

import (
	"github.com/google/uuid"
)

var _ Session = (*session)(nil)

type session struct {
	id              string
	userID          string
	protocolVersion string
	client          ClientInfo
	caps            CapabilitySet
}

// Option customizes a session built by New.
type Option func(*session)

// WithClientInfo records the client identity reported during initialize.
func WithClientInfo(info ClientInfo) Option {
	return func(s *session) { s.client = info }
}

// WithCapabilities records the capability set the client advertised.
func WithCapabilities(caps CapabilitySet) Option {
	return func(s *session) { s.caps = caps }
}

// WithSessionID overrides the randomly generated session ID.
func WithSessionID(id string) Option {
	return func(s *session) {
		if id != "" {
			s.id = id
		}
	}
}

// New creates an immutable session for the given user and negotiated
// protocol version. The session ID is a random UUID unless overridden.
func New(userID, protocolVersion string, opts ...Option) Session {
	s := &session{
		id:              uuid.NewString(),
		userID:          userID,
		protocolVersion: protocolVersion,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *session) SessionID() string {
	return s.id
}

func (s *session) UserID() string {
	return s.userID
}

func (s *session) ProtocolVersion() string {
	return s.protocolVersion
}

func (s *session) ClientInfo() ClientInfo {
	return s.client
}

func (s *session) Capabilities() CapabilitySet {
	return s.caps
}
