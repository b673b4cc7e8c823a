//go:build linux || darwin

package transport

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/tidekeep/blobcache/internal/cacheerr"
)

// shm:// implements a two-way, sequence-numbered mailbox over a POSIX
// shared memory segment: one named region holds a request half and a
// response half, each with an atomic sequence counter the other side
// spins on. There is no kernel wakeup primitive involved (no futex,
// no eventfd) — spec.md's RPC calls are strictly synchronous
// request/response, so a short spin-then-sleep backoff is enough and
// keeps this file free of another syscall surface.
const (
	regionHeaderSize = 32 // reqSeq, respSeq, reqLen, respLen: 4 uint64
	maxFrameSize      = 21 + 4<<20 // largest request header (21B) + 4 MiB, which covers DefaultMaxDataSize and its 1024B reserve
)

func regionSize() int64 {
	return int64(regionHeaderSize + 2*maxFrameSize)
}

func shmPath(name string) string {
	return filepath.Join("/dev/shm", "blobcache-"+name)
}

type shmRegion struct {
	f        *os.File
	data     []byte
	closeOnce sync.Once
	closeErr  error
}

func openRegion(name string, create bool) (*shmRegion, error) {
	path := shmPath(name)
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		return nil, cacheerr.Wrapf(err, "open shm segment %q", path)
	}
	if create {
		if err := f.Truncate(regionSize()); err != nil {
			f.Close()
			return nil, cacheerr.Wrap(err, "size shm segment")
		}
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(regionSize()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, cacheerr.Wrap(err, "mmap shm segment")
	}
	return &shmRegion{f: f, data: data}, nil
}

// close unmaps and closes the backing file exactly once, even if both
// a listener and its accepted connection share this region and both
// get closed.
func (r *shmRegion) close(unlink bool, name string) error {
	r.closeOnce.Do(func() {
		err := unix.Munmap(r.data)
		r.f.Close()
		if unlink {
			os.Remove(shmPath(name))
		}
		if err != nil {
			r.closeErr = cacheerr.Wrap(err, "munmap shm segment")
		}
	})
	return r.closeErr
}

func (r *shmRegion) seqPtr(off int) *uint64 {
	return (*uint64)(unsafe.Pointer(&r.data[off]))
}

const (
	offReqSeq  = 0
	offRespSeq = 8
	offReqLen  = 16
	offRespLen = 24
	offReqBuf  = regionHeaderSize
)

func offRespBuf() int { return regionHeaderSize + maxFrameSize }

// shmConn is a transport.Conn over one half-duplex pair of mailboxes
// in a shmRegion. server reads the request half and writes the
// response half; the client does the opposite.
type shmConn struct {
	region   *shmRegion
	name     string
	isServer bool
	unlinkOnClose bool

	lastIn uint64

	writeMu sync.Mutex
	writeBuf []byte

	readBuf []byte
	readOff int
}

func dialSHM(name string) (Conn, error) {
	r, err := openRegion(name, false)
	if err != nil {
		return nil, cacheerr.Wrapf(cacheerr.ErrTransport, "shm dial %q: %v", name, err)
	}
	return &shmConn{region: r, name: name, isServer: false}, nil
}

func (c *shmConn) inOffsets() (seqOff, lenOff, bufOff int) {
	if c.isServer {
		return offReqSeq, offReqLen, offReqBuf
	}
	return offRespSeq, offRespLen, offRespBuf()
}

func (c *shmConn) outOffsets() (seqOff, lenOff, bufOff int) {
	if c.isServer {
		return offRespSeq, offRespLen, offRespBuf()
	}
	return offReqSeq, offReqLen, offReqBuf
}

func (c *shmConn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.writeBuf = append(c.writeBuf, p...)
	return len(p), nil
}

// Flush publishes everything buffered since the last Flush as one
// message and bumps the outgoing sequence counter.
func (c *shmConn) Flush() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if len(c.writeBuf) > maxFrameSize {
		return cacheerr.Wrap(cacheerr.ErrTransport, "message exceeds shm frame size")
	}
	seqOff, lenOff, bufOff := c.outOffsets()
	copy(c.region.data[bufOff:], c.writeBuf)
	atomic.StoreUint64(c.region.seqPtr(lenOff), uint64(len(c.writeBuf)))
	atomic.AddUint64(c.region.seqPtr(seqOff), 1)
	c.writeBuf = c.writeBuf[:0]
	return nil
}

func (c *shmConn) Read(p []byte) (int, error) {
	if c.readOff >= len(c.readBuf) {
		if err := c.awaitNextMessage(); err != nil {
			return 0, err
		}
	}
	n := copy(p, c.readBuf[c.readOff:])
	c.readOff += n
	return n, nil
}

func (c *shmConn) awaitNextMessage() error {
	seqOff, lenOff, bufOff := c.inOffsets()
	backoff := time.Microsecond
	for {
		seq := atomic.LoadUint64(c.region.seqPtr(seqOff))
		if seq != c.lastIn {
			c.lastIn = seq
			n := atomic.LoadUint64(c.region.seqPtr(lenOff))
			c.readBuf = append(c.readBuf[:0], c.region.data[bufOff:bufOff+int(n)]...)
			c.readOff = 0
			return nil
		}
		time.Sleep(backoff)
		if backoff < time.Millisecond {
			backoff *= 2
		}
	}
}

func (c *shmConn) Close() error {
	return c.region.close(c.unlinkOnClose, c.name)
}

// shmListener hands out the single server-side connection for a
// shm:// name: each named segment is one dedicated channel, so a
// second Accept call after the first is a caller error.
type shmListener struct {
	name   string
	region *shmRegion
	mu     sync.Mutex
	taken  bool
}

func listenSHM(name string) (Listener, error) {
	r, err := openRegion(name, true)
	if err != nil {
		return nil, cacheerr.Wrapf(cacheerr.ErrTransport, "shm listen %q: %v", name, err)
	}
	return &shmListener{name: name, region: r}, nil
}

func (l *shmListener) Accept() (Conn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.taken {
		return nil, cacheerr.Wrap(cacheerr.ErrTransport, "shm channel already has a connected client")
	}
	l.taken = true
	return &shmConn{region: l.region, name: l.name, isServer: true, unlinkOnClose: true}, nil
}

func (l *shmListener) Close() error {
	return l.region.close(!l.taken, l.name)
}

func (l *shmListener) Addr() string { return shmPath(l.name) }
