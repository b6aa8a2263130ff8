package rpcmsg

import "github.com/poluo/libvirt/internal/bytesize"

// Config lets a deployment impose a local, stricter resource cap than the
// protocol's own wire-format limits (LenFieldSize, HeaderXDRLen, MaxPayload,
// MaxTotalFrame, MaxFDs are wire constants and never change — they must
// match the peer exactly). MaxLocalPayload never raises the wire ceiling,
// only lowers it.
type Config struct {
	// MaxLocalPayload bounds EncodePayload/DecodePayload beyond the wire
	// protocol's own MaxPayload, e.g. to cap memory use per connection.
	// Zero means "use the protocol maximum".
	MaxLocalPayload bytesize.ByteSize
}

// DefaultConfig returns a Config with no local restriction beyond the
// protocol maximum.
func DefaultConfig() Config {
	return Config{MaxLocalPayload: bytesize.ByteSize(MaxPayload)}
}

// EffectiveMaxPayload returns the smaller of the protocol's MaxPayload and
// the configured local cap.
func (c Config) EffectiveMaxPayload() int {
	if c.MaxLocalPayload == 0 {
		return MaxPayload
	}
	return int(c.MaxLocalPayload.Min(bytesize.ByteSize(MaxPayload)).Uint64())
}
