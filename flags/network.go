package flags

import (
	"time"

	"gopkg.in/urfave/cli.v1"
)

// TokenomicsFlags override the fee schedule and reward parameters of the
// selected network. Amounts are decimal strings.
func TokenomicsFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "fee.base",
			Usage: "Base fee of every fee-paying transaction",
		},
		cli.StringFlag{
			Name:  "staking.rate",
			Usage: "Yearly staking reward rate before lock multipliers (0.12 = 12%)",
		},
		cli.StringFlag{
			Name:  "staking.min",
			Usage: "Minimum stake amount",
		},
		cli.DurationFlag{
			Name:  "staking.unbonding",
			Usage: "Unbonding period of unstaked positions",
		},
		cli.StringFlag{
			Name:  "governance.threshold",
			Usage: "Total voting power a proposal needs to pass",
		},
		cli.StringFlag{
			Name:  "ai.reward",
			Usage: "Base reward of an AI validation report",
		},
		cli.IntFlag{
			Name:  "ai.history",
			Usage: "Validation records kept per address (0 = unlimited)",
		},
	}
}

// ChainFlags tune the block producer.
func ChainFlags() []cli.Flag {
	return []cli.Flag{
		cli.DurationFlag{
			Name:  "block.time",
			Usage: "Block production cadence",
		},
		cli.Uint64Flag{
			Name:  "block.difficulty",
			Usage: "Reported block difficulty (informational)",
		},
		cli.IntFlag{
			Name:  "block.maxtxs",
			Usage: "Maximum transactions per block",
		},
		cli.DurationFlag{
			Name:  "block.maxidle",
			Usage: "Longest time without a block while nothing is pending",
			Value: time.Minute,
		},
	}
}

// TxPoolFlags isolates pending queue tuning knobs.
func TxPoolFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "txpool.globalslots",
			Usage: "Maximum number of pending transactions",
			Value: 4096,
		},
		cli.IntFlag{
			Name:  "txpool.history",
			Usage: "Largest page of a transaction history listing",
			Value: 100,
		},
	}
}
