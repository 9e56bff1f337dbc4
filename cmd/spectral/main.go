// SPDX-License-Identifier: MIT

// Command spectral partitions a generated graph. Without transport peers
// every rank runs in this process; with peers it runs one rank over TCP and
// prints the colours of the vertices that rank owns.
//
//	spectral -config run.yaml
//	SPECTRAL_PROCS=4 SPECTRAL_MODE=kway spectral
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	spectral "github.com/katalvlaran/lvlath-spectral"
	"github.com/katalvlaran/lvlath-spectral/comm"
	"github.com/katalvlaran/lvlath-spectral/comm/tcp"
	"github.com/katalvlaran/lvlath-spectral/config"
	"github.com/katalvlaran/lvlath-spectral/dgraph"
	"github.com/katalvlaran/lvlath-spectral/metrics"
	"github.com/katalvlaran/lvlath-spectral/partition"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file (YAML); environment only when empty")
		metricsAddr = flag.String("metrics", "", "Serve Prometheus metrics on this address while running")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *metricsAddr, os.Stdout); err != nil {
		log.Printf("spectral: %v", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	cfg := config.LoadConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// run executes the configured mode and writes "vertex colour" lines, or one
// eigenvalue per line, to out.
func run(ctx context.Context, cfg *config.Config, metricsAddr string, out io.Writer) error {
	logger, err := spectral.NewLoggerFromConfig(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewPrometheus(reg, "")
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", "err", err)
			}
		}()
		defer srv.Close()
	}

	p, err := spectral.FromConfig(cfg, spectral.WithLogger(logger), spectral.WithMetrics(collector))
	if err != nil {
		return err
	}
	ctor, n, err := cfg.Graph.Build()
	if err != nil {
		return err
	}

	if cfg.Transport.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Transport.Timeout)
		defer cancel()
	}

	results := make([]result, cfg.Procs)
	body := func(ctx context.Context, c comm.Communicator) error {
		g, err := dgraph.Shard(c.Rank(), c.Size(), n, ctor)
		if err != nil {
			return err
		}
		res, err := runMode(ctx, p, cfg, g, c)
		if err != nil {
			return err
		}
		results[c.Rank()] = res

		return nil
	}

	if len(cfg.Transport.Peers) == 0 {
		if err := comm.Run(ctx, cfg.Procs, body); err != nil {
			return err
		}
		for _, res := range results {
			res.write(out)
		}

		return nil
	}

	c, err := dialTCP(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()
	if err := body(ctx, c); err != nil {
		return err
	}
	results[cfg.Rank].write(out)

	return nil
}

func dialTCP(ctx context.Context, cfg *config.Config) (*tcp.Comm, error) {
	ln, err := tcp.Listen(cfg.ListenAddr())
	if err != nil {
		return nil, err
	}
	var opts []tcp.Option
	if cfg.Transport.Compression {
		opts = append(opts, tcp.WithCompression())
	}
	if cfg.Transport.MailboxDepth > 0 {
		opts = append(opts, tcp.WithMailboxDepth(cfg.Transport.MailboxDepth))
	}
	if cfg.Transport.DialBackoff > 0 {
		opts = append(opts, tcp.WithDialBackoff(cfg.Transport.DialBackoff))
	}
	c, err := tcp.Dial(ctx, cfg.Rank, ln, cfg.Transport.Peers, opts...)
	if err != nil {
		ln.Close()
		return nil, err
	}

	return c, nil
}

// result is one rank's output: owned vertex colours, or the eigenvalues on
// rank 0.
type result struct {
	vertices []int
	colours  []int
	values   []float64
}

func runMode(ctx context.Context, p *spectral.Partitioner, cfg *config.Config, g *dgraph.Graph, c comm.Communicator) (result, error) {
	if cfg.Mode == config.ModeEigenvalues {
		values, err := p.Eigenvalues(ctx, g, c, cfg.NumEigvecs)
		if err != nil || c.Rank() != 0 {
			return result{}, err
		}

		return result{values: values}, nil
	}

	var (
		col *partition.Colouring
		err error
	)
	if cfg.Mode == config.ModeBisect {
		col, err = p.Bisect(ctx, g, c)
	} else {
		col, err = p.KWay(ctx, g, c, cfg.NumEigvecs)
	}
	if err != nil {
		return result{}, err
	}

	var res result
	col.Each(func(v, colour int) bool {
		res.vertices = append(res.vertices, v)
		res.colours = append(res.colours, colour)
		return true
	})

	return res, nil
}

func (r result) write(w io.Writer) {
	for _, v := range r.values {
		fmt.Fprintf(w, "%.10g\n", v)
	}
	for i, v := range r.vertices {
		fmt.Fprintf(w, "%d %d\n", v, r.colours[i])
	}
}
