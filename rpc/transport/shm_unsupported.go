//go:build !linux && !darwin

package transport

import "github.com/tidekeep/blobcache/internal/cacheerr"

// ErrUnsupportedTransport is returned by shm:// dial/listen on
// platforms without a POSIX shared-memory filesystem.
var ErrUnsupportedTransport = cacheerr.Wrap(cacheerr.ErrTransport, "shm:// is not supported on this platform")

func dialSHM(name string) (Conn, error) {
	return nil, ErrUnsupportedTransport
}

func listenSHM(name string) (Listener, error) {
	return nil, ErrUnsupportedTransport
}
