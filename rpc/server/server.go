// Package server hosts a facade.Cache behind the RPC surface: one
// listener, a bounded worker pool, and a VERSION/SET/GET dispatcher.
// Structure follows the original's threaded server loop
// (original_source/hyscancache/hyscan-cache-server.c), generalized
// from a fixed thread-per-client model to a semaphore-bounded pool the
// way buchgr-bazel-remote and IvanBrykalov-shardcache bound their own
// request concurrency with golang.org/x/sync/semaphore.
package server

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/tidekeep/blobcache/blob"
	"github.com/tidekeep/blobcache/facade"
	"github.com/tidekeep/blobcache/internal/cacheerr"
	"github.com/tidekeep/blobcache/rpc/transport"
	"github.com/tidekeep/blobcache/rpc/wire"
)

// Config bundles a server's construction parameters (spec.md §9:
// {uri, worker_threads, max_clients, cache}).
type Config struct {
	URI           string
	WorkerThreads int64
	MaxClients    int64
	Cache         facade.Cache
	Logger        *slog.Logger
	MaxDataSize   int
}

// Server accepts connections on a transport.Listener and serves the
// RPC protocol against a single facade.Cache.
type Server struct {
	cfg Config
	log *slog.Logger

	ln       transport.Listener
	workers  *semaphore.Weighted
	clients  *semaphore.Weighted
	stopOnce sync.Once
	stopCh   chan struct{}
}

// New builds a Server; it does not start listening until Serve is
// called.
func New(cfg Config) *Server {
	if cfg.WorkerThreads <= 0 {
		cfg.WorkerThreads = 8
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 64
	}
	if cfg.MaxDataSize <= 0 {
		cfg.MaxDataSize = wire.DefaultMaxDataSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		log:     cfg.Logger,
		workers: semaphore.NewWeighted(cfg.WorkerThreads),
		clients: semaphore.NewWeighted(cfg.MaxClients),
		stopCh:  make(chan struct{}),
	}
}

// Serve blocks accepting connections on cfg.URI until Stop is called.
func (s *Server) Serve() error {
	ln, err := transport.Listen(s.cfg.URI)
	if err != nil {
		return cacheerr.Wrapf(err, "listen on %q", s.cfg.URI)
	}
	s.ln = ln
	s.log.Info("blobcache rpc server listening", "uri", s.cfg.URI, "addr", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return nil
			default:
				return cacheerr.Wrap(err, "accept")
			}
		}
		if !s.clients.TryAcquire(1) {
			s.log.Warn("rejecting connection: max_clients reached")
			conn.Close()
			continue
		}
		go s.serveConn(conn)
	}
}

// Stop closes the listener; in-flight calls run to completion.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.ln != nil {
			s.ln.Close()
		}
	})
}

func (s *Server) serveConn(conn transport.Conn) {
	defer s.clients.Release(1)
	defer conn.Close()

	for {
		req, err := wire.ReadRequest(conn, s.cfg.MaxDataSize)
		if err != nil {
			return // client hung up or sent a malformed frame
		}

		ctx := context.Background()
		if err := s.workers.Acquire(ctx, 1); err != nil {
			return
		}
		resp := s.handle(req)
		s.workers.Release(1)

		if err := wire.WriteResponse(conn, resp, s.cfg.MaxDataSize); err != nil {
			return
		}
		if f, ok := conn.(transport.Flusher); ok {
			if err := f.Flush(); err != nil {
				return
			}
		}
	}
}

func (s *Server) handle(req *wire.Request) *wire.Response {
	switch req.Verb {
	case wire.VerbVersion:
		return &wire.Response{Verb: wire.VerbVersion, Status: wire.StatusOK, Version: wire.ProtocolVersion}

	case wire.VerbSet:
		buf := blob.Wrap(blob.KindOpaque, req.Data)
		ok := s.cfg.Cache.Store(req.Key, req.Detail, buf)
		return &wire.Response{Verb: wire.VerbSet, Status: statusOf(ok)}

	case wire.VerbGet:
		out := blob.New(blob.KindOpaque)
		ok := s.cfg.Cache.Load(req.Key, req.Detail, out)
		if !ok {
			return &wire.Response{Verb: wire.VerbGet, Status: wire.StatusFail}
		}
		return &wire.Response{Verb: wire.VerbGet, Status: wire.StatusOK, Data: out.Bytes()}

	default:
		return &wire.Response{Verb: req.Verb, Status: wire.StatusFail}
	}
}

func statusOf(ok bool) uint32 {
	if ok {
		return wire.StatusOK
	}
	return wire.StatusFail
}
