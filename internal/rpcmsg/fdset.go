package rpcmsg

import (
	"bytes"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/poluo/libvirt/internal/logger"
	"github.com/poluo/libvirt/internal/metrics"
	"github.com/poluo/libvirt/internal/rpcmsg/xdr"
)

// unsetFD is the sentinel value used to fill FD slots that DecodeNumFDs has
// sized but that the connection layer has not yet populated via ancillary
// data.
const unsetFD = -1

// FdSet owns a sequence of file descriptors attached to a Message. Every FD
// in the set is owned by the message: it is either transferred to the peer
// (ownership released by the connection layer) or closed by Clear /
// Message destruction.
type FdSet struct {
	fds     []int
	doneFDs int

	metrics *metrics.CodecMetrics
}

// Len returns the number of FD slots, populated or not.
func (s *FdSet) Len() int {
	return len(s.fds)
}

// DoneFDs returns how many of the leading slots have already been
// transferred by the connection layer (send) or received into (receive).
func (s *FdSet) DoneFDs() int {
	return s.doneFDs
}

// SetDoneFDs records partial send/receive progress, used by the connection
// layer to resume an interrupted transfer.
func (s *FdSet) SetDoneFDs(n int) {
	s.doneFDs = n
}

// Fds returns the live FD slice. Callers must not retain it past the next
// mutation of the set.
func (s *FdSet) Fds() []int {
	return s.fds
}

// AddFD duplicates fd (the caller keeps its own copy) and appends the
// duplicate, with close-on-exec set, to the set. The message owns the
// duplicate from this point on.
func (s *FdSet) AddFD(fd int) error {
	newFD, err := unix.Dup(fd)
	if err != nil {
		return newSystemError("add_fd", fmt.Sprintf("duplicate fd %d", fd), err)
	}
	if err := unix.CloseOnExec(newFD); err != nil {
		_ = unix.Close(newFD)
		return newSystemError("add_fd", fmt.Sprintf("set close-on-exec on fd %d", newFD), err)
	}
	s.fds = append(s.fds, newFD)
	s.metrics.RecordFDAttached()
	return nil
}

// DupFD returns a fresh, close-on-exec duplicate of the FD at slot; the
// caller owns the returned FD.
func (s *FdSet) DupFD(slot int) (int, error) {
	if slot < 0 || slot >= len(s.fds) {
		return -1, newInternalError("dup_fd", fmt.Sprintf("no fd available at slot %d", slot))
	}
	newFD, err := unix.Dup(s.fds[slot])
	if err != nil {
		return -1, newSystemError("dup_fd", fmt.Sprintf("duplicate fd %d", s.fds[slot]), err)
	}
	if err := unix.CloseOnExec(newFD); err != nil {
		_ = unix.Close(newFD)
		return -1, newSystemError("dup_fd", fmt.Sprintf("set close-on-exec on fd %d", newFD), err)
	}
	return newFD, nil
}

// Clear closes every FD owned by the set and releases its storage.
func (s *FdSet) Clear() {
	for _, fd := range s.fds {
		_ = unix.Close(fd)
	}
	s.fds = nil
	s.doneFDs = 0
}

// Rights encodes the set's owned FDs as an SCM_RIGHTS ancillary-data
// payload, ready for a connection layer to hand to unix.WriteMsgUnix
// alongside the message buffer.
func (s *FdSet) Rights() []byte {
	if len(s.fds) == 0 {
		return nil
	}
	return unix.UnixRights(s.fds...)
}

// AbsorbRights parses an SCM_RIGHTS ancillary-data payload received
// alongside the message buffer (e.g. from unix.ReadMsgUnix's oob output)
// and fills FD slots previously sized by DecodeNumFDs, advancing DoneFDs.
// Extra FDs beyond the sized slot count are closed immediately: a peer
// cannot be allowed to smuggle descriptors the header didn't announce.
func (s *FdSet) AbsorbRights(oob []byte) error {
	cmsgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return newSystemError("absorb_rights", "parse socket control message", err)
	}

	for _, cmsg := range cmsgs {
		received, err := unix.ParseUnixRights(&cmsg)
		if err != nil {
			return newSystemError("absorb_rights", "parse unix rights", err)
		}
		for _, fd := range received {
			if s.doneFDs >= len(s.fds) {
				logger.Warn("Received unexpected extra FD, closing", "fd", fd)
				_ = unix.Close(fd)
				continue
			}
			s.fds[s.doneFDs] = fd
			s.doneFDs++
			s.metrics.RecordFDReceived()
		}
	}
	return nil
}

// EncodeNumFDs serializes the message's FD count as an XDR u32 at
// bufferOffset and advances it. This operates on the message rather than
// just the FdSet because it needs access to the shared buffer cursor, the
// same way virNetMessageEncodeNumFDs takes the whole virNetMessagePtr
// rather than just its FD array.
func (m *Message) EncodeNumFDs() error {
	n := len(m.fds.fds)
	if n > MaxFDs {
		return newProtocolError("encode_num_fds", fmt.Sprintf("too many FDs %d > %d", n, MaxFDs), nil)
	}

	var buf bytes.Buffer
	buf.Grow(LenFieldSize)
	if err := xdr.WriteUint32(&buf, uint32(n)); err != nil {
		return newProtocolError("encode_num_fds", "num_fds", err)
	}

	m.buffer.Grow(m.bufferOffset + buf.Len())
	copy(m.buffer.Slice(m.bufferOffset, buf.Len()), buf.Bytes())
	m.bufferOffset += buf.Len()
	return nil
}

// DecodeNumFDs reads an XDR u32 FD count at bufferOffset and advances past
// it. If the set has no FDs allocated yet, it sizes the FD sequence to n
// slots, each initialized to the unsetFD sentinel, awaiting an ancillary-
// data receive via AbsorbRights. If the sequence is already sized (a
// resumed partial receive), it is left unchanged, matching
// virNetMessageDecodeNumFDs's idempotence.
func (m *Message) DecodeNumFDs() (int, error) {
	if m.buffer.Len() < m.bufferOffset+LenFieldSize {
		return 0, newInternalError("decode_num_fds", "buffer not large enough for num_fds")
	}

	r := bytes.NewReader(m.buffer.Slice(m.bufferOffset, LenFieldSize))
	n, err := xdr.DecodeUint32(r)
	if err != nil {
		return 0, newProtocolError("decode_num_fds", "num_fds", err)
	}
	if n > MaxFDs {
		return 0, newProtocolError("decode_num_fds", fmt.Sprintf("too many FDs %d > %d", n, MaxFDs), nil)
	}
	m.bufferOffset += LenFieldSize

	if len(m.fds.fds) == 0 && n > 0 {
		m.fds.fds = make([]int, n)
		for i := range m.fds.fds {
			m.fds.fds[i] = unsetFD
		}
	}

	logger.Debug("Got FDs from peer", logger.KeyNumFDs, n)
	return int(n), nil
}
