package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/WessleyAI/sentwindow/engine/domain"
	"github.com/WessleyAI/sentwindow/pkg/natsutil"
	"github.com/WessleyAI/sentwindow/pkg/resilience"
)

// DefaultSubject is the subject candidates are published on.
const DefaultSubject = "sentwindow.candidates"

// DefaultFlushTimeout bounds the server round trip that ends a Write.
const DefaultFlushTimeout = 5 * time.Second

// Message is the JSON body of one published candidate.
type Message struct {
	domain.Candidate
	Source string `json:"source"`
	Index  int    `json:"index"`
	Total  int    `json:"total"`
}

// NATSOpts configures a NATSSink.
type NATSOpts struct {
	Subject string
	// Source tags every message, typically the graph source ID.
	Source string
	// Rate caps publishes per second. Zero or less means unlimited.
	Rate  float64
	Burst int
	// Breaker trips after consecutive publish failures.
	Breaker resilience.BreakerOpts
	// FlushTimeout bounds the final flush. Zero means DefaultFlushTimeout.
	FlushTimeout time.Duration
}

// progress remembers how far the last Write of a batch got, so a retried
// Write of the same batch picks up after the last published message.
type progress struct {
	first *domain.Candidate
	total int
	sent  int
}

func (p progress) resumes(cands []domain.Candidate) bool {
	return len(cands) > 0 && p.first == &cands[0] && p.total == len(cands)
}

// NATSSink publishes each candidate as its own message.
// It is not safe for concurrent use.
type NATSSink struct {
	nc      *nats.Conn
	opts    NATSOpts
	log     *slog.Logger
	limiter *rate.Limiter
	breaker *resilience.Breaker
	publish func(context.Context, Message) error
	prog    progress
}

// NewNATSSink creates a sink over an established connection.
func NewNATSSink(nc *nats.Conn, opts NATSOpts, log *slog.Logger) *NATSSink {
	if log == nil {
		log = slog.Default()
	}
	if opts.Subject == "" {
		opts.Subject = DefaultSubject
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = DefaultFlushTimeout
	}
	if opts.Breaker.OnStateChange == nil {
		subject := opts.Subject
		opts.Breaker.OnStateChange = func(from, to resilience.State) {
			log.Warn("nats breaker state change", "subject", subject, "from", from.String(), "to", to.String())
		}
	}
	s := &NATSSink{
		nc:      nc,
		opts:    opts,
		log:     log,
		limiter: rate.NewLimiter(limit, opts.Burst),
		breaker: resilience.NewBreaker(opts.Breaker),
	}
	s.publish = func(ctx context.Context, msg Message) error {
		return natsutil.Publish(ctx, s.nc, s.opts.Subject, msg)
	}
	return s
}

// Name implements ingest.Sink.
func (s *NATSSink) Name() string { return "nats" }

// Write publishes cands in order, then flushes the connection so the server
// has acknowledged receipt before returning. Calling Write again with the same
// slice after a failure continues after the last published message.
func (s *NATSSink) Write(ctx context.Context, cands []domain.Candidate) error {
	start := 0
	if s.prog.resumes(cands) {
		start = s.prog.sent
		s.log.Debug("resuming nats publish", "subject", s.opts.Subject, "from", start, "total", len(cands))
	} else {
		s.prog = progress{total: len(cands)}
		if len(cands) > 0 {
			s.prog.first = &cands[0]
		}
	}

	for i := start; i < len(cands); i++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("export: nats rate wait: %w", err)
		}
		msg := Message{Candidate: cands[i], Source: s.opts.Source, Index: i, Total: len(cands)}
		err := s.breaker.Call(ctx, func(ctx context.Context) error {
			return s.publish(ctx, msg)
		})
		if err != nil {
			return fmt.Errorf("export: publish %d/%d to %s: %w", i+1, len(cands), s.opts.Subject, err)
		}
		s.prog.sent = i + 1
	}

	fctx, cancel := context.WithTimeout(ctx, s.opts.FlushTimeout)
	defer cancel()
	if err := s.nc.FlushWithContext(fctx); err != nil {
		return fmt.Errorf("export: nats flush: %w", err)
	}
	s.prog = progress{}
	return nil
}
