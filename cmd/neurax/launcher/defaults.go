package launcher

import (
	"github.com/shopspring/decimal"

	"github.com/rony4d/go-neurax/integration"
)

// DefaultConfig returns the baseline configuration the launcher uses before
// the config file and flags override it. Zero tokenomics and chain values
// mean "keep the network rule".
func DefaultConfig() Config {
	return Config{
		Node: NodeConfig{
			Name: "neurax", //	Node identity shown in logs.
		},
		Logging: LoggingConfig{
			Verbosity: 3,      //	0=fatal, 1=error, 2=warn, 3=info, 4=debug, 5=trace.
			Format:    "text", //	text or json.
			Color:     false,  //	ANSI colors; best disabled when piping to files.
		},
		Metrics: MetricsConfig{
			Enabled: false,       //	Serve Prometheus metrics on Addr:Port/metrics.
			Addr:    "127.0.0.1", //	Interface the metrics server binds to.
			Port:    6060,
		},
		Preset: integration.DefaultPreset(),
		Tokenomics: TokenomicsConfig{
			BaseFee:           decimal.Zero,
			StakingRate:       decimal.Zero,
			MinStake:          decimal.Zero,
			ProposalThreshold: decimal.Zero,
			AIBaseReward:      decimal.Zero,
		},
	}
}
