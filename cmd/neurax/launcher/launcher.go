package launcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-neurax/flags"
	"github.com/rony4d/go-neurax/governance"
	"github.com/rony4d/go-neurax/integration"
	"github.com/rony4d/go-neurax/inter"
	"github.com/rony4d/go-neurax/logger"
	"github.com/rony4d/go-neurax/metrics"
	"github.com/rony4d/go-neurax/node"
)

// gitCommit is set at build time with -ldflags "-X ...launcher.gitCommit=...".
var gitCommit = ""

func newApp() *cli.App {
	app := flags.NewApp(gitCommit, "the NeuraX node")
	app.Flags = flags.AllFlags()
	app.Action = runNode
	app.Commands = []cli.Command{
		{
			Name:   "dumpconfig",
			Usage:  "Print the effective configuration as JSON",
			Flags:  flags.AllFlags(),
			Action: dumpConfig,
		},
		{
			Name:   "wallet",
			Usage:  "Generate a new wallet key and address",
			Action: newWallet,
		},
	}
	return app
}

// Launch parses args and runs the selected command.
func Launch(args []string) error {
	return newApp().Run(args)
}

func runNode(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	log, err := makeLogger(cfg, nil)
	if err != nil {
		return err
	}
	m := metrics.New()
	n, err := makeNode(cfg, m, clock.New(), log)
	if err != nil {
		return err
	}
	subscribeLogs(n, log)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		srv := &http.Server{
			Addr:              net.JoinHostPort(cfg.Metrics.Addr, strconv.Itoa(cfg.Metrics.Port)),
			Handler:           metricsMux(m),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.WithField("addr", srv.Addr).Info("Metrics server started")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
		defer func() {
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdown)
		}()
	}

	log.WithFields(logrus.Fields{
		"name":    cfg.Node.Name,
		"network": n.Rules().Name,
		"preset":  cfg.Preset.Name,
	}).Info("Starting block production")
	err = n.Run(runCtx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.WithField("height", n.Chain.Info().Height).Info("Node stopped")
	return err
}

func makeLogger(cfg Config, out io.Writer) (*logrus.Logger, error) {
	lc := logger.DefaultConfig()
	lc.Format = cfg.Logging.Format
	lc.Verbosity = cfg.Logging.Verbosity
	lc.Color = cfg.Logging.Color
	lc.SentryDSN = cfg.Logging.SentryDSN
	lc.Output = out
	return logger.New(lc)
}

// makeNode resolves rules and genesis from cfg and builds the node.
func makeNode(cfg Config, m *metrics.Metrics, clk clock.Clock, log logrus.FieldLogger) (*node.Node, error) {
	rules, err := cfg.Rules()
	if err != nil {
		return nil, err
	}
	g := integration.Genesis(cfg.Preset, rules, inter.FromTime(clk.Now()))
	return node.New(node.Config{
		Genesis:        g,
		Validator:      cfg.Node.Validator,
		TxHistoryLimit: cfg.Preset.TxHistoryLimit,
	}, m, clk, log.WithField("node", cfg.Node.Name))
}

func metricsMux(m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}

func subscribeLogs(n *node.Node, log logrus.FieldLogger) {
	_ = n.Subscribe(node.TopicBlockSealed, func(b *inter.Block) {
		log.WithFields(logrus.Fields{
			"height":    b.Height,
			"hash":      b.Hash.Hex(),
			"txs":       len(b.Transactions),
			"validator": b.Validator.Short(),
		}).Info("Block sealed")
	})
	_ = n.Subscribe(node.TopicFraudFlagged, func(r *inter.Receipt) {
		log.WithFields(logrus.Fields{
			"tx":        r.Tx.Hash.Hex(),
			"validator": r.Tx.From.Short(),
		}).Warn("Fraud flagged")
	})
	_ = n.Subscribe(node.TopicProposalFinalized, func(p governance.Proposal) {
		log.WithFields(logrus.Fields{
			"id":      p.ID,
			"status":  p.Status,
			"for":     p.VotesFor,
			"against": p.VotesAgainst,
		}).Info("Proposal updated")
	})
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	return writeJSON(ctx.App.Writer, cfg)
}

func newWallet(ctx *cli.Context) error {
	w, err := node.GenerateWallet()
	if err != nil {
		return err
	}
	return writeJSON(ctx.App.Writer, w)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
