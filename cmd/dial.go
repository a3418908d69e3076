package cmd

import (
	"bufio"
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tlschannel/tlschannel/channel"
	"github.com/tlschannel/tlschannel/config"
)

// NewDialCmd builds the "dial" subcommand: connect to cfg.Addr as the
// TLS initiator, then relay stdin lines to the peer and print whatever
// comes back.
func NewDialCmd(logger *zap.Logger, cfg *config.Config) Cmd {
	return &dialCmd{logger: logger, cfg: cfg}
}

type dialCmd struct {
	logger *zap.Logger
	cfg    *config.Config
}

func (d *dialCmd) GetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dial",
		Short:   "Connect to a peer, negotiate, and relay stdin lines",
		Example: "tlschannel dial",
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.run()
		},
	}
}

func (d *dialCmd) run() error {
	conn, err := net.Dial("tcp", d.cfg.Addr)
	if err != nil {
		return fmt.Errorf("dial: connect %s: %w", d.cfg.Addr, err)
	}
	defer conn.Close()

	eng, err := newEngine(d.cfg.Engine, true)
	if err != nil {
		return fmt.Errorf("dial: engine setup: %w", err)
	}

	opts := d.cfg.ToChannelOptions(func() error {
		d.logger.Info("handshake complete")
		return nil
	})

	ch := channel.New(eng, connTransport{conn}, opts)
	defer ch.Close()

	if err := ch.Handshake(); err != nil {
		return fmt.Errorf("dial: handshake: %w", err)
	}
	d.logger.Info("connected", zap.String("addr", d.cfg.Addr))

	scanner := bufio.NewScanner(os.Stdin)
	reply := make([]byte, 4096)
	for scanner.Scan() {
		line := append(scanner.Bytes(), '\n')
		if _, err := ch.Write(line); err != nil {
			return fmt.Errorf("dial: write: %w", err)
		}
		n, err := ch.Read(reply)
		if n > 0 {
			os.Stdout.Write(reply[:n])
		}
		if err != nil {
			d.logger.Info("peer closed", zap.Error(err))
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("dial: stdin: %w", err)
	}

	_, err = ch.Shutdown()
	return err
}
