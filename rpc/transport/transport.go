// Package transport dials and listens on the two URI schemes spec.md
// §6.1 names for the RPC façade: tcp:// (stdlib net, for talking to a
// blobcached across a network or a loopback socket) and shm:// (POSIX
// shared memory, for same-host clients that want to skip the kernel's
// TCP stack entirely). Selection is by URI prefix, the same dispatch
// shape the original's transport registry uses
// (original_source/hyscancache/hyscan-cache-client.c).
package transport

import (
	"io"
	"net/url"
	"strings"

	"github.com/tidekeep/blobcache/internal/cacheerr"
)

// Conn is a framed duplex byte stream: exactly what rpc/wire needs to
// write requests/responses on the client side and read them on the
// server side.
type Conn interface {
	io.ReadWriteCloser
}

// Listener accepts incoming Conns.
type Listener interface {
	Accept() (Conn, error)
	Close() error
	Addr() string
}

// Flusher is implemented by transports that buffer Write calls until
// explicitly told a logical message is complete (shm://). tcp:// does
// not implement it: each Write already reaches the kernel socket
// buffer immediately, so callers should treat a missing Flusher as
// "nothing to do".
type Flusher interface {
	Flush() error
}

// Dial connects to uri, dispatching on its scheme.
func Dial(uri string) (Conn, error) {
	scheme, rest, err := splitURI(uri)
	if err != nil {
		return nil, err
	}
	switch scheme {
	case "tcp":
		return dialTCP(rest)
	case "shm":
		return dialSHM(rest)
	default:
		return nil, cacheerr.Wrapf(cacheerr.ErrTransport, "unsupported transport scheme %q", scheme)
	}
}

// Listen starts accepting connections on uri, dispatching on its
// scheme.
func Listen(uri string) (Listener, error) {
	scheme, rest, err := splitURI(uri)
	if err != nil {
		return nil, err
	}
	switch scheme {
	case "tcp":
		return listenTCP(rest)
	case "shm":
		return listenSHM(rest)
	default:
		return nil, cacheerr.Wrapf(cacheerr.ErrTransport, "unsupported transport scheme %q", scheme)
	}
}

func splitURI(uri string) (scheme, rest string, err error) {
	u, parseErr := url.Parse(uri)
	if parseErr != nil || u.Scheme == "" {
		return "", "", cacheerr.Wrapf(cacheerr.ErrTransport, "malformed transport URI %q", uri)
	}
	// url.Parse puts "tcp://host:port"'s authority in Host; shm://name
	// puts name in Host too (it looks like an authority to net/url).
	rest = u.Host
	if rest == "" {
		rest = strings.TrimPrefix(uri, u.Scheme+"://")
	}
	return u.Scheme, rest, nil
}
