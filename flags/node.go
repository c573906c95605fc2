package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// NodeFlags holds knobs specific to the local node instance: identity,
// network, validator role and preset.

func NodeFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "identity",
			Usage: "Custom node name used in logs",
		},
		cli.StringFlag{
			Name:  "network",
			Usage: "Network rules to run with (main|test|fake)",
			Value: "main",
		},
		cli.StringFlag{
			Name:  "validator",
			Usage: "Address this node seals blocks as (NX...)",
		},
		cli.StringFlag{
			Name:  "preset",
			Usage: "Node preset (dev|full|archive|default)",
			Value: "default",
		},
		cli.IntFlag{
			Name:  "fakenet.accounts",
			Usage: "Number of funded development accounts on the fake network",
		},
	}
}
