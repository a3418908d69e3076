// Package cmd wires the cobra subcommands: serve (listen as the TLS
// responder) and dial (connect as the initiator), both driving a
// channel.Channel over a real TCP connection.
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tlschannel/tlschannel/config"
)

// Cmd is the contract every subcommand implements, so Root can
// register them uniformly.
type Cmd interface {
	GetCmd() *cobra.Command
}

// registeredCmds collects every Cmd built by the New* constructors in
// this package, for Root to attach to the cobra root command.
var registeredCmds []Cmd

func register(c Cmd) { registeredCmds = append(registeredCmds, c) }

// Root builds the top-level cobra command and wires the serve/dial
// subcommands under it.
func Root(logger *zap.Logger, cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "tlschannel",
		Short: "Drive a TLS record-layer channel over TCP",
	}

	registeredCmds = nil
	register(NewServeCmd(logger, cfg))
	register(NewDialCmd(logger, cfg))

	for _, c := range registeredCmds {
		root.AddCommand(c.GetCmd())
	}
	return root
}
