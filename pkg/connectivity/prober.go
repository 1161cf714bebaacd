package connectivity

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edgesoc/sentinel/pkg/retry"
	"github.com/edgesoc/sentinel/pkg/state"
)

// Targets names the endpoints the prober cycles over.
type Targets struct {
	// SearchEndpoint is the search-engine base URL, e.g.
	// https://search.example.eu-west-1.es.amazonaws.com. DNS and TLS checks
	// run against its hostname; the HTTP check hits its cluster-health API.
	SearchEndpoint string

	// QueueAddr is the host:port of the queue service (bare TCP probe).
	QueueAddr string
}

// Prober runs the connectivity check set on a fixed cadence. The four
// checks of a cycle run as a concurrent batch; the batch join is the only
// synchronization barrier, and it always waits for every check rather than
// cancelling siblings on the first failure.
type Prober struct {
	store   *state.Store
	targets Targets
	policy  retry.Policy
	logger  zerolog.Logger

	interval    time.Duration
	dialTimeout time.Duration
	tlsPort     string

	resolver   *net.Resolver
	httpClient *http.Client
	tlsConfig  *tls.Config

	stopCh chan struct{}
	doneCh chan struct{}
}

// DefaultDialTimeout is the per-attempt timeout for the TLS, HTTP and TCP
// checks. It bounds a hung attempt independently of the retry cap.
const DefaultDialTimeout = 5 * time.Second

// NewProber creates a connectivity prober publishing into store.
func NewProber(store *state.Store, targets Targets, interval time.Duration, logger zerolog.Logger) *Prober {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Prober{
		store:       store,
		targets:     targets,
		policy:      retry.DefaultPolicy(),
		logger:      logger,
		interval:    interval,
		dialTimeout: DefaultDialTimeout,
		tlsPort:     "443",
		resolver:    net.DefaultResolver,
		httpClient:  &http.Client{Timeout: DefaultDialTimeout},
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the probe loop.
func (p *Prober) Start() {
	go p.loop()
}

// Stop terminates the probe loop and waits for the current cycle to finish.
func (p *Prober) Stop() {
	close(p.stopCh)
	<-p.doneCh
}

func (p *Prober) loop() {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-p.stopCh
		cancel()
	}()

	p.RunCycle(ctx)
	for {
		select {
		case <-ticker.C:
			p.RunCycle(ctx)
		case <-p.stopCh:
			return
		}
	}
}

// RunCycle executes one fan-out/fan-in batch of checks and publishes the
// per-service readiness keys and the rolled-up pipeline_ok verdict. A check
// that exhausted its retries counts as false, never as unknown.
func (p *Prober) RunCycle(ctx context.Context) {
	host := searchHost(p.targets.SearchEndpoint)

	// Results are written from the goroutine that owns them and read only
	// after the join.
	dnsOK, tlsOK, httpOK, tcpOK := true, true, true, true

	// Plain errgroup.Group on purpose: no shared context cancellation, the
	// join waits for every check regardless of individual failures.
	var g errgroup.Group

	if host != "" {
		g.Go(func() error {
			dnsOK = p.runCheck(ctx, "dns_resolution", func(ctx context.Context) error {
				return p.checkDNS(ctx, host)
			})
			return nil
		})
		g.Go(func() error {
			tlsOK = p.runCheck(ctx, "tls_handshake", func(ctx context.Context) error {
				return p.checkTLS(ctx, net.JoinHostPort(host, p.tlsPort))
			})
			return nil
		})
		g.Go(func() error {
			healthURL := strings.TrimRight(p.targets.SearchEndpoint, "/") + "/_cluster/health"
			httpOK = p.runCheck(ctx, "search_health", func(ctx context.Context) error {
				return p.checkHTTP(ctx, healthURL)
			})
			return nil
		})
	} else {
		p.logger.Warn().Msg("search endpoint not configured, skipping search checks")
		dnsOK, tlsOK, httpOK = false, false, false
		p.store.SetError("search endpoint not configured")
	}

	g.Go(func() error {
		tcpOK = p.runCheck(ctx, "queue_connect", func(ctx context.Context) error {
			return p.checkTCP(ctx, p.targets.QueueAddr)
		})
		return nil
	})

	_ = g.Wait()

	searchReady := dnsOK && tlsOK && httpOK
	pipelineOK := searchReady && tcpOK

	p.store.Set(state.KeyAWSReady, searchReady)
	p.store.Set(state.KeyRedisReady, tcpOK)
	p.store.Set(state.KeyPipelineOK, pipelineOK)

	if pipelineOK {
		p.logger.Debug().Msg("all connectivity checks passed")
	} else {
		p.logger.Warn().
			Bool("dns", dnsOK).
			Bool("tls", tlsOK).
			Bool("http", httpOK).
			Bool("queue", tcpOK).
			Msg("connectivity checks failed")
	}
}

// runCheck wraps a single check in the retry executor and records the
// terminal failure in the store. The returned bool is the check verdict.
func (p *Prober) runCheck(ctx context.Context, name string, check func(context.Context) error) bool {
	_, err := retry.Do(ctx, p.policy, p.logger, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, check(ctx)
	})
	if err != nil {
		p.logger.Error().Err(err).Str("check", name).Msg("connectivity check failed after retries")
		p.store.SetError(err.Error())
		return false
	}
	return true
}

// searchHost extracts the bare hostname from the configured endpoint,
// tolerating both full URLs and plain host strings.
func searchHost(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	if strings.Contains(endpoint, "://") {
		if u, err := url.Parse(endpoint); err == nil {
			return u.Hostname()
		}
	}
	host := strings.Split(endpoint, "/")[0]
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
