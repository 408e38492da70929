package http

import (
	"context"
	"crypto/tls"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"
)

// TLSFiles names the PEM files served when TLS is enabled. Intermediate is
// optional and appended to the leaf certificate's chain.
type TLSFiles struct {
	CertFile         string
	KeyFile          string
	IntermediateFile string
}

type ServerConfig struct {
	Address         string
	Handler         http.Handler
	TLS             *TLSFiles
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Server serves the router on a TCP listener until its context ends.
type Server struct {
	address         string
	handler         http.Handler
	tlsConfig       *tls.Config
	shutdownTimeout time.Duration
	logger          *slog.Logger

	ready chan struct{}
	addr  net.Addr
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Address == "" {
		return nil, errors.New("http server: address is required")
	}
	if cfg.Handler == nil {
		return nil, errors.New("http server: handler is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	timeout := cfg.ShutdownTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	s := &Server{
		address:         cfg.Address,
		handler:         cfg.Handler,
		shutdownTimeout: timeout,
		logger:          cfg.Logger,
		ready:           make(chan struct{}),
	}
	if cfg.TLS != nil {
		tlsConfig, err := LoadTLSConfig(*cfg.TLS)
		if err != nil {
			return nil, err
		}
		s.tlsConfig = tlsConfig
	}
	return s, nil
}

// LoadTLSConfig loads the key pair and appends every certificate found in
// the intermediate file to the served chain.
func LoadTLSConfig(files TLSFiles) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(files.CertFile, files.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load key pair: %w", err)
	}
	if files.IntermediateFile != "" {
		raw, err := os.ReadFile(files.IntermediateFile)
		if err != nil {
			return nil, fmt.Errorf("read intermediate certificate: %w", err)
		}
		found := false
		for {
			var block *pem.Block
			block, raw = pem.Decode(raw)
			if block == nil {
				break
			}
			if block.Type == "CERTIFICATE" {
				cert.Certificate = append(cert.Certificate, block.Bytes)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("intermediate certificate %s: no PEM certificate found", files.IntermediateFile)
		}
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr is valid after Ready is closed.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Serve blocks until ctx is cancelled, then drains active requests for up to
// the shutdown timeout.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}
	s.addr = listener.Addr()
	close(s.ready)

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.logger.Info("http server listening",
		slog.String("address", s.addr.String()),
		slog.Bool("tls", s.tlsConfig != nil))

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}
