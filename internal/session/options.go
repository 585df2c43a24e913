package session

import "log/slog"

// ReentryPolicy decides what StartDrag does while a drag is already active.
type ReentryPolicy int

const (
	// ReentryOverwrite replaces the live session with the new gesture.
	// No DragEnded is emitted for the replaced gesture.
	ReentryOverwrite ReentryPolicy = iota

	// ReentryReject keeps the live session and ignores the new StartDrag.
	ReentryReject
)

// String returns the config-file spelling of the policy.
func (p ReentryPolicy) String() string {
	switch p {
	case ReentryOverwrite:
		return "overwrite"
	case ReentryReject:
		return "reject"
	default:
		return "unknown"
	}
}

// ParseReentryPolicy parses "overwrite" or "reject". Empty means overwrite.
func ParseReentryPolicy(s string) (ReentryPolicy, bool) {
	switch s {
	case "", "overwrite":
		return ReentryOverwrite, true
	case "reject":
		return ReentryReject, true
	default:
		return ReentryOverwrite, false
	}
}

// Option configures a Session.
type Option func(*Session)

// WithListener sets the side-effect listener. Default: NopListener.
func WithListener(l Listener) Option {
	return func(s *Session) {
		if l != nil {
			s.listener = l
		}
	}
}

// WithGestureGenerator sets the gesture token generator.
// Default: UUIDv7Generator.
func WithGestureGenerator(g GestureGenerator) Option {
	return func(s *Session) {
		if g != nil {
			s.gestures = g
		}
	}
}

// WithCodec sets the transfer codec. Default: ItemCodec.
func WithCodec(c TransferCodec) Option {
	return func(s *Session) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithReentryPolicy sets the re-entrant StartDrag policy.
// Default: ReentryOverwrite.
func WithReentryPolicy(p ReentryPolicy) Option {
	return func(s *Session) {
		s.reentry = p
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}
