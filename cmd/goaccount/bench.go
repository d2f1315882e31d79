package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	goAccount "github.com/MrEthical07/goAccount"
	accountprom "github.com/MrEthical07/goAccount/metrics/export/prometheus"
	"github.com/MrEthical07/goAccount/notify"
	"github.com/MrEthical07/goAccount/session"
	"github.com/MrEthical07/goAccount/store/memory"
)

type benchOptions struct {
	users       int
	concurrency int
	ops         int
	redisAddr   string
	prefix      string
	metrics     bool
}

// NewBenchCmd creates the bench subcommand.
func NewBenchCmd() *cobra.Command {
	var opts benchOptions
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure login and session lookup latency",
		Long: `Register users in an in-memory account database, then run concurrent
log-in and current-account phases against a Redis session store and
report p50/p95/p99 latency. Without --redis-addr an in-process miniredis
is used.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBench(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().IntVar(&opts.users, "users", 1000, "number of accounts to register")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 64, "number of concurrent workers")
	cmd.Flags().IntVar(&opts.ops, "ops", 20000, "operations per phase")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "gas-bench", "session key prefix")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print the manager metrics in Prometheus text format")
	return cmd
}

type benchUser struct {
	name     string
	password string
}

func runBench(ctx context.Context, out io.Writer, opts benchOptions) error {
	if opts.users <= 0 || opts.concurrency <= 0 || opts.ops <= 0 {
		return oops.Code("INPUT_INVALID").Errorf("users, concurrency, and ops must be > 0")
	}

	addr := opts.redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return oops.Code("REDIS_UNAVAILABLE").With("operation", "start miniredis").Wrap(err)
		}
		defer mr.Close()
		addr = mr.Addr()
		fmt.Fprintf(out, "using miniredis at %s\n", addr)
	} else {
		fmt.Fprintf(out, "using redis at %s\n", addr)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer client.Close()

	logger := slog.New(slog.DiscardHandler)
	renderer, err := notify.NewRenderer("bench", "http://localhost", nil)
	if err != nil {
		return err
	}

	cfg := goAccount.DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	manager, err := goAccount.New().
		WithConfig(cfg).
		WithDatabase(memory.New()).
		WithNotifier(notify.NewMailer(renderer, notify.NewLog(logger))).
		WithSessionStore(session.NewAccounts(session.NewStore(client, session.Config{Prefix: opts.prefix}))).
		WithLogger(logger).
		Build()
	if err != nil {
		return err
	}
	defer manager.Close()

	users := make([]benchUser, opts.users)
	fmt.Fprintf(out, "registering %d users...\n", opts.users)
	startSeed := time.Now()
	for i := range users {
		users[i] = benchUser{
			name:     fmt.Sprintf("bench-%d", i),
			password: fmt.Sprintf("secret-%d", i),
		}
		email := fmt.Sprintf("bench-%d@example.com", i)
		if res := manager.RegisterUser(ctx, email, users[i].name, users[i].password, true); !res.OK() {
			return oops.Code("SEED_FAILED").With("user", users[i].name).Wrap(res.Err())
		}
	}
	fmt.Fprintf(out, "registered in %s\n", time.Since(startSeed).Round(time.Millisecond))

	sids := make([]string, opts.ops)
	loginStats := runPhase(opts.ops, opts.concurrency, func(r *rand.Rand, i int) bool {
		u := users[r.Intn(len(users))]
		sids[i] = session.NewID()
		return manager.LogIn(session.WithID(ctx, sids[i]), u.name, u.password, "127.0.0.1").OK()
	})
	currentStats := runPhase(opts.ops, opts.concurrency, func(r *rand.Rand, _ int) bool {
		sid := sids[r.Intn(len(sids))]
		return manager.CurrentAccount(session.WithID(ctx, sid)) != nil
	})

	fmt.Fprintln(out, "---- results ----")
	printStats(out, "login", loginStats)
	printStats(out, "current", currentStats)

	snap := manager.MetricsSnapshot()
	fmt.Fprintf(out, "counters: login_success=%d login_failure=%d\n",
		snap.Counters[goAccount.MetricLoginSuccess],
		snap.Counters[goAccount.MetricLoginFailure],
	)
	if opts.metrics {
		fmt.Fprintln(out, "---- metrics ----")
		fmt.Fprint(out, accountprom.NewPrometheusExporter(manager).Render())
	}
	return nil
}

// runPhase runs ops calls of op across concurrency workers. op reports
// success; every call is timed.
func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) bool) phaseStats {
	var (
		wg       sync.WaitGroup
		next     atomic.Int64
		failures atomic.Int64
	)
	perWorker := make([][]time.Duration, concurrency)

	start := time.Now()
	for w := range perWorker {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewSource(start.UnixNano() ^ int64(w+1)*7919))
			for {
				i := int(next.Add(1) - 1)
				if i >= ops {
					return
				}
				began := time.Now()
				if !op(r, i) {
					failures.Add(1)
				}
				perWorker[w] = append(perWorker[w], time.Since(began))
			}
		}()
	}
	wg.Wait()

	samples := make([]time.Duration, 0, ops)
	for _, l := range perWorker {
		samples = append(samples, l...)
	}
	return computeStats(time.Since(start), samples, failures.Load())
}

type phaseStats struct {
	total         time.Duration
	ops           int
	failures      int64
	p50, p95, p99 time.Duration
	opsPerS       float64
}

// computeStats sorts samples in place.
func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	slices.Sort(samples)
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

// percentile picks the nearest-rank sample of sorted.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	p = min(max(p, 0), 100)
	return sorted[(len(sorted)-1)*p/100]
}

func printStats(out io.Writer, name string, s phaseStats) {
	us := func(d time.Duration) time.Duration { return d.Round(time.Microsecond) }
	fmt.Fprintf(out, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name, s.ops, s.failures, s.total.Round(time.Millisecond), s.opsPerS,
		us(s.p50), us(s.p95), us(s.p99))
}
