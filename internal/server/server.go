package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/eternalApril/hanabi/internal/resp"
	"go.uber.org/zap"
)

// Server accepts client connections and serves each one on its own goroutine
type Server struct {
	engine          *Engine
	logger          *zap.Logger
	metrics         *Metrics
	maxBulkLen      int64
	shutdownTimeout time.Duration

	wg    sync.WaitGroup
	mu    sync.Mutex
	peers map[*Peer]struct{}
}

// ServerOptions tunes the connection handling of a Server
type ServerOptions struct {
	MaxBulkLen      int64         // limit for client bulk strings, 0 means the protocol default
	ShutdownTimeout time.Duration // how long Serve waits for open connections after the context is done
	Metrics         *Metrics
}

// NewServer creates a Server executing requests on engine
func NewServer(engine *Engine, logger *zap.Logger, opts ServerOptions) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}

	return &Server{
		engine:          engine,
		logger:          logger,
		metrics:         opts.Metrics,
		maxBulkLen:      opts.MaxBulkLen,
		shutdownTimeout: opts.ShutdownTimeout,
		peers:           make(map[*Peer]struct{}),
	}
}

// Serve accepts connections on ln until ctx is done, then closes ln and waits for
// open connections to finish. Connections still open after the shutdown timeout are closed
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			ln.Close() //nolint:errcheck
		case <-stop:
		}
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("Accept error", zap.Error(err))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}

	s.drain()
	return ctx.Err()
}

// drain waits for connections to close, forcing them closed after the shutdown timeout
func (s *Server) drain() {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("All connections closed gracefully")
	case <-time.After(s.shutdownTimeout):
		s.logger.Warn("Shutdown timed out, closing connections", zap.Duration("timeout", s.shutdownTimeout))
		s.closePeers()
		<-done
	}
}

func (s *Server) closePeers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.peers {
		p.Close() //nolint:errcheck
	}
}

func (s *Server) track(p *Peer) {
	s.mu.Lock()
	s.peers[p] = struct{}{}
	s.mu.Unlock()
	s.metrics.connOpened()
}

func (s *Server) untrack(p *Peer) {
	s.mu.Lock()
	delete(s.peers, p)
	s.mu.Unlock()
	s.metrics.connClosed()
}

// handleConnection handles a connection for a single user
func (s *Server) handleConnection(conn net.Conn) {
	peer := NewPeer(conn)
	peer.SetMaxBulkLength(s.maxBulkLen)

	log := s.logger.With(zap.String("peer", peer.ID()))
	if log.Core().Enabled(zap.DebugLevel) {
		log.Debug("client connected", zap.String("addr", conn.RemoteAddr().String()))
	}

	s.track(peer)
	defer func() {
		s.untrack(peer)
		peer.Close() //nolint:errcheck
		// log connection close
		if log.Core().Enabled(zap.DebugLevel) {
			log.Debug("client disconnected", zap.String("addr", conn.RemoteAddr().String()))
		}
	}()

	for {
		err := s.engine.ProcessRequest(peer)
		if err == nil {
			continue
		}

		switch {
		case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		case resp.IsProtocolError(err):
			// already answered and logged, the stream is out of sync
		default:
			log.Warn("connection failed", zap.Error(err))
		}
		return
	}
}
