// Package harness drives the per-frame loop an IMSM poll function runs
// under: ingest external notifications, invoke the poll function,
// recycle the frame's list cache, reset program-point state. It is
// deliberately the only place in this module that talks to an external
// event source — the source itself (epoll, kqueue, a message bus) is
// explicitly out of scope, modeled here as the minimal [Notifier]
// interface.
package harness

import "context"

// Notifier is the minimal contract a poll [Driver] needs from whatever
// external event multiplexer is feeding it notifications. Readiness
// events arrive as opaque 64-bit cookies — the same encoding [imsm.Ref]
// uses — so the driver can hand them directly to [imsm.Notify] without
// understanding their origin.
type Notifier interface {
	// Wait blocks up to the driver's configured timeout (or until ctx
	// is done) and appends ready cookies to dst, returning the
	// extended slice. A nil/empty return with a nil error means "no
	// readiness this frame" and is not an error; ctx.Err() is returned
	// unwrapped when it is ctx's own cancellation/deadline that ended
	// the wait.
	Wait(ctx context.Context, dst []uint64) ([]uint64, error)
}

// ChannelNotifier is a trivial channel-backed [Notifier], used by this
// package's tests in place of a real OS event multiplexer.
type ChannelNotifier struct {
	C chan uint64
}

// NewChannelNotifier returns a ChannelNotifier with a buffered channel
// of the given capacity.
func NewChannelNotifier(buffer int) *ChannelNotifier {
	return &ChannelNotifier{C: make(chan uint64, buffer)}
}

// Wait blocks for at least one cookie, then drains any further
// already-buffered cookies without blocking.
func (n *ChannelNotifier) Wait(ctx context.Context, dst []uint64) ([]uint64, error) {
	select {
	case c := <-n.C:
		dst = append(dst, c)
	case <-ctx.Done():
		return dst, ctx.Err()
	}
	for {
		select {
		case c := <-n.C:
			dst = append(dst, c)
		default:
			return dst, nil
		}
	}
}
