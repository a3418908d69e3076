package cmd

import (
	"fmt"
	"io"
	"net"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tlschannel/tlschannel/channel"
	"github.com/tlschannel/tlschannel/config"
	"github.com/tlschannel/tlschannel/internal/utils"
)

// maxConcurrentSessions bounds how many connections serve will drive
// at once, so a burst of peers can't spawn unbounded goroutines.
const maxConcurrentSessions = 64

// NewServeCmd builds the "serve" subcommand: listen on cfg.Addr and run
// one channel.Channel per accepted connection, as the TLS responder.
func NewServeCmd(logger *zap.Logger, cfg *config.Config) Cmd {
	return &serveCmd{logger: logger, cfg: cfg}
}

type serveCmd struct {
	logger *zap.Logger
	cfg    *config.Config
}

func (s *serveCmd) GetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Short:   "Listen for a single peer and echo the decrypted stream back",
		Example: "tlschannel serve",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd)
		},
	}
}

func (s *serveCmd) run(cmd *cobra.Command) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("serve: listen %s: %w", s.cfg.Addr, err)
	}
	defer ln.Close()
	s.logger.Info("listening", zap.String("addr", ln.Addr().String()))

	var g errgroup.Group
	g.SetLimit(maxConcurrentSessions)

	for {
		conn, err := ln.Accept()
		if err != nil {
			_ = g.Wait()
			return fmt.Errorf("serve: accept: %w", err)
		}
		g.Go(func() error {
			s.handle(conn)
			return nil
		})
	}
}

func (s *serveCmd) handle(conn net.Conn) {
	logger := s.logger.With(zap.String("peer", conn.RemoteAddr().String()))
	defer utils.Recover(logger)
	defer conn.Close()

	eng, err := newEngine(s.cfg.Engine, false)
	if err != nil {
		logger.Error("engine setup failed", zap.Error(err))
		return
	}

	opts := s.cfg.ToChannelOptions(func() error {
		logger.Info("handshake complete")
		return nil
	})

	ch := channel.New(eng, connTransport{conn}, opts)
	defer ch.Close()

	if err := ch.Handshake(); err != nil {
		logger.Error("handshake failed", zap.Error(err))
		return
	}

	buf := make([]byte, 4096)
	for {
		n, err := ch.Read(buf)
		if n > 0 {
			if _, werr := ch.Write(buf[:n]); werr != nil {
				logger.Error("echo write failed", zap.Error(werr))
				return
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			utils.LogError(logger, err, "read failed")
			return
		}
	}

	if _, err := ch.Shutdown(); err != nil {
		utils.LogError(logger, err, "shutdown failed")
	}
}
