package server

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Server serves HTTP/1.1, and HTTP/2 over cleartext when enabled, on a
// listener that other processes may share.
type Server struct {
	addr      string
	reusePort bool
	server *http.Server
	h2     *http2.Server

	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

// Config contains server configuration
type Config struct {
	Addr                 string
	Handler              http.Handler
	H2C                  bool
	ReusePort            bool // share the port with other processes
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration // 0 disables
	IdleTimeout          time.Duration
	MaxConcurrentStreams uint32
}

// New creates a new server
func New(cfg Config) *Server {
	if cfg.MaxConcurrentStreams == 0 {
		cfg.MaxConcurrentStreams = 250
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 120 * time.Second
	}

	s := &Server{
		addr:      cfg.Addr,
		reusePort: cfg.ReusePort,
	}

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           cfg.Handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	if cfg.H2C {
		s.h2 = &http2.Server{
			MaxConcurrentStreams: cfg.MaxConcurrentStreams,
			IdleTimeout:          cfg.IdleTimeout,
		}
		s.server.Handler = h2c.NewHandler(cfg.Handler, s.h2)
	}

	return s
}

// Listen binds the configured address. With ReusePort set it uses
// SO_REUSEPORT where supported, so every worker process can bind the same
// port; otherwise a busy port is an error.
func (s *Server) Listen() (net.Listener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("server is closed")
	}
	if s.listener != nil {
		return s.listener, nil
	}

	listen := listenExclusive
	if s.reusePort {
		listen = ListenReusePort
	}
	ln, err := listen(context.Background(), "tcp", s.addr)
	if err != nil {
		return nil, err
	}
	s.listener = ln
	return ln, nil
}

// Serve accepts connections on the bound listener until Close.
func (s *Server) Serve() error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}

	proto := "http/1.1"
	if s.h2 != nil {
		proto = "http/1.1+h2c"
	}
	log.Printf("Listening on %s (%s)", ln.Addr(), proto)

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Close stops the server immediately without draining.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := s.server.Close()
	if s.listener != nil {
		s.listener.Close()
	}
	return err
}

func listenExclusive(ctx context.Context, network, address string) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, network, address)
}

// CheckAddr reports whether address can be bound exclusively right now.
// The test listener is closed before returning.
func CheckAddr(address string) error {
	ln, err := listenExclusive(context.Background(), "tcp", address)
	if err != nil {
		return err
	}
	return ln.Close()
}
