// Package client is the RPC-backed facade.Cache stub: it performs a
// VERSION handshake once per connection, then serializes subsequent
// Store/Load calls over that single connection, collapsing any
// transport failure to a plain false per spec.md §7 ("the façade
// itself stays boolean"). Modeled on the original's client stub
// (original_source/hyscancache/hyscan-cache-client.c), which likewise
// caches one connection per cache handle rather than reconnecting per
// call.
package client

import (
	"log/slog"
	"sync"

	"github.com/tidekeep/blobcache/blob"
	"github.com/tidekeep/blobcache/facade"
	"github.com/tidekeep/blobcache/fingerprint"
	"github.com/tidekeep/blobcache/internal/cacheerr"
	"github.com/tidekeep/blobcache/rpc/transport"
	"github.com/tidekeep/blobcache/rpc/wire"
)

var _ facade.Cache = (*Stub)(nil)

// Stub is a facade.Cache backed by a single RPC connection.
type Stub struct {
	mu          sync.Mutex
	conn        transport.Conn
	maxDataSize int
	log         *slog.Logger
}

// Dial connects to uri and performs the one-time VERSION handshake.
func Dial(uri string) (*Stub, error) {
	return DialWithLogger(uri, slog.Default())
}

// DialWithLogger is Dial with an explicit logger, for callers that
// don't want the process-wide default.
func DialWithLogger(uri string, log *slog.Logger) (*Stub, error) {
	conn, err := transport.Dial(uri)
	if err != nil {
		return nil, cacheerr.Wrapf(err, "dial %q", uri)
	}
	s := &Stub{conn: conn, maxDataSize: wire.DefaultMaxDataSize, log: log}

	resp, err := s.call(&wire.Request{Verb: wire.VerbVersion})
	if err != nil {
		conn.Close()
		return nil, cacheerr.Wrap(err, "version handshake")
	}
	if resp.Version != wire.ProtocolVersion {
		conn.Close()
		return nil, cacheerr.Wrapf(cacheerr.ErrProtocolMismatch, "server=%d client=%d", resp.Version, wire.ProtocolVersion)
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Stub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

func (s *Stub) call(req *wire.Request) (*wire.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := wire.WriteRequest(s.conn, req, s.maxDataSize); err != nil {
		return nil, err
	}
	if f, ok := s.conn.(transport.Flusher); ok {
		if err := f.Flush(); err != nil {
			return nil, err
		}
	}
	return wire.ReadResponse(s.conn, s.maxDataSize)
}

// Store implements facade.Cache.
func (s *Stub) Store(key, detail uint64, buf *blob.Buffer) bool {
	resp, err := s.call(&wire.Request{Verb: wire.VerbSet, Key: key, Detail: detail, Data: buf.Bytes()})
	if err != nil {
		s.logTransportError("store", err)
		return false
	}
	return resp.Status == wire.StatusOK
}

// StoreSplit implements facade.Cache. The wire protocol has no split
// verb (spec.md §6.2 notes store_split/load_split collapse to a
// single concatenated payload over RPC), so the two buffers are joined
// before crossing the wire. An absent primary source (a) deletes the
// key regardless of b, same as Engine.StoreSplit — it must not be
// joined into a non-empty payload, or the delete would be lost over
// the wire.
func (s *Stub) StoreSplit(key, detail uint64, a, b *blob.Buffer) bool {
	if a.Empty() {
		return s.Store(key, detail, blob.New(blob.KindOpaque))
	}
	joined := make([]byte, 0, a.Len()+b.Len())
	joined = append(joined, a.Bytes()...)
	joined = append(joined, b.Bytes()...)
	return s.Store(key, detail, blob.Wrap(a.Kind(), joined))
}

// StoreString implements facade.Cache.
func (s *Stub) StoreString(keyStr string, detail uint64, buf *blob.Buffer) bool {
	return s.Store(fingerprint.Sum64(keyStr), detail, buf)
}

// Load implements facade.Cache.
func (s *Stub) Load(key, detail uint64, out *blob.Buffer) bool {
	resp, err := s.call(&wire.Request{Verb: wire.VerbGet, Key: key, Detail: detail})
	if err != nil {
		s.logTransportError("load", err)
		return false
	}
	if resp.Status != wire.StatusOK {
		return false
	}
	out.SetFrom(resp.Data)
	return true
}

// LoadSplit implements facade.Cache by loading the joined payload and
// splitting it locally at prefixSize.
func (s *Stub) LoadSplit(key, detail uint64, prefixSize uint32, outA, outB *blob.Buffer) bool {
	// spec.md §4.2 Load step 1: outB without outA is ill-formed.
	if outA == nil && outB != nil {
		return false
	}
	full := blob.New(blob.KindOpaque)
	if !s.Load(key, detail, full) {
		return false
	}
	data := full.Bytes()
	mA := int(prefixSize)
	if mA > len(data) {
		mA = len(data)
	}
	if outA != nil {
		outA.SetFrom(data[:mA])
	}
	if outB != nil {
		outB.SetFrom(data[mA:])
	}
	return true
}

// LoadString implements facade.Cache.
func (s *Stub) LoadString(keyStr string, detail uint64, out *blob.Buffer) bool {
	return s.Load(fingerprint.Sum64(keyStr), detail, out)
}

func (s *Stub) logTransportError(op string, err error) {
	if s.log != nil {
		s.log.Warn("blobcache rpc call failed", "op", op, "err", err)
	}
}
