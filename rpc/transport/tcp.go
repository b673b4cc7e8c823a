package transport

import (
	"net"

	"github.com/tidekeep/blobcache/internal/cacheerr"
)

type tcpConn struct {
	net.Conn
}

func dialTCP(hostport string) (Conn, error) {
	c, err := net.Dial("tcp", hostport)
	if err != nil {
		return nil, cacheerr.Wrap(err, "tcp dial")
	}
	return tcpConn{c}, nil
}

type tcpListener struct {
	ln net.Listener
}

func listenTCP(hostport string) (Listener, error) {
	ln, err := net.Listen("tcp", hostport)
	if err != nil {
		return nil, cacheerr.Wrap(err, "tcp listen")
	}
	return &tcpListener{ln: ln}, nil
}

func (l *tcpListener) Accept() (Conn, error) {
	c, err := l.ln.Accept()
	if err != nil {
		return nil, cacheerr.Wrap(err, "tcp accept")
	}
	return tcpConn{c}, nil
}

func (l *tcpListener) Close() error { return l.ln.Close() }

func (l *tcpListener) Addr() string { return l.ln.Addr().String() }
