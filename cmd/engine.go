package cmd

import (
	"fmt"

	"github.com/tlschannel/tlschannel/engine"
	"github.com/tlschannel/tlschannel/noiseengine"
	"github.com/tlschannel/tlschannel/testengine"
)

// newEngine builds the concrete engine.Engine the config names.
func newEngine(name string, initiator bool) (engine.Engine, error) {
	switch name {
	case "", "noise":
		if initiator {
			return noiseengine.NewInitiator(), nil
		}
		return noiseengine.NewResponder(), nil
	case "test":
		return testengine.New(initiator), nil
	default:
		return nil, fmt.Errorf("cmd: unknown engine %q", name)
	}
}
