package remote

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/executor"
	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/plan"
)

// HostTarget pairs a host with the segment it must sum.
type HostTarget struct {
	Name    string
	Segment plan.Segment
}

// Transport runs one segment on one host and returns the peer's partial sum.
//
//go:generate mockgen -destination=mocks/mock_transport.go -package=mocks github.com/agbru/picalc/internal/remote Transport
type Transport interface {
	Invoke(ctx context.Context, target HostTarget) (float64, error)
}

// ParseResult parses peer output that must hold exactly one finite number,
// optionally surrounded by whitespace.
func ParseResult(host, output string) (float64, error) {
	fields := strings.Fields(output)
	if len(fields) != 1 {
		return 0, apperrors.ResultParseFailure{Host: host, Output: output, Cause: errWrongFieldCount(len(fields))}
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, apperrors.ResultParseFailure{Host: host, Output: output, Cause: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperrors.ResultParseFailure{Host: host, Output: output, Cause: errNotFinite}
	}
	return v, nil
}

// FormatResult renders a partial sum the way ParseResult expects it, with
// the shortest representation that round-trips.
func FormatResult(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Executor dispatches a plan across hosts. Segment i goes to host
// i mod len(hosts); every host runs its segments one after the other, so
// there is at most one outstanding call per host, and hosts run
// concurrently. The first failure cancels the others.
type Executor struct {
	hosts     []string
	transport Transport
	logger    logging.Logger
	observer  executor.Observer
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithObserver registers a callback invoked once per returned segment.
func WithObserver(obs executor.Observer) Option {
	return func(e *Executor) { e.observer = obs }
}

// NewExecutor creates a distributed executor over hosts.
func NewExecutor(hosts []string, transport Transport, opts ...Option) (*Executor, error) {
	if len(hosts) == 0 {
		return nil, apperrors.NewConfigError("%s mode needs at least one host", executor.ModeDistributed)
	}
	for _, h := range hosts {
		if strings.TrimSpace(h) == "" {
			return nil, apperrors.NewConfigError("empty host name in %v", hosts)
		}
	}
	e := &Executor{
		hosts:     append([]string(nil), hosts...),
		transport: transport,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Executor) Name() string { return executor.ModeDistributed }

// Hosts returns the configured hosts in dispatch order.
func (e *Executor) Hosts() []string { return append([]string(nil), e.hosts...) }

// Targets returns the host assignment for every segment of p, in plan order.
func (e *Executor) Targets(p plan.Plan) []HostTarget {
	targets := make([]HostTarget, p.Len())
	for i, seg := range p.Segments {
		targets[i] = HostTarget{Name: e.hosts[i%len(e.hosts)], Segment: seg}
	}
	return targets
}

func (e *Executor) Execute(ctx context.Context, p plan.Plan) ([]plan.PartialResult, error) {
	targets := e.Targets(p)
	results := make([]plan.PartialResult, len(targets))
	g, ctx := errgroup.WithContext(ctx)

	for h := range e.hosts {
		if h >= len(targets) {
			break
		}
		g.Go(func() error {
			for i := h; i < len(targets); i += len(e.hosts) {
				res, err := e.invoke(ctx, targets[i])
				if err != nil {
					return err
				}
				results[i] = res
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Executor) invoke(ctx context.Context, target HostTarget) (plan.PartialResult, error) {
	ctx, span := otel.Tracer("github.com/agbru/picalc/internal/remote").Start(ctx, "remote.Invoke", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("host", target.Name),
		attribute.Int64("segment.start", int64(target.Segment.Start)),
		attribute.Int64("segment.end", int64(target.Segment.End)),
	)

	if err := ctx.Err(); err != nil {
		return plan.PartialResult{}, err
	}
	start := time.Now()
	value, err := e.transport.Invoke(ctx, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "peer invocation failed")
		if ctxErr := ctx.Err(); ctxErr != nil && apperrors.IsContextError(err) {
			return plan.PartialResult{}, ctxErr
		}
		e.logger.Error("peer invocation failed", err,
			logging.String("host", target.Name), logging.String("segment", target.Segment.String()))
		return plan.PartialResult{}, err
	}
	span.SetStatus(codes.Ok, "")

	res := plan.PartialResult{Segment: target.Segment, Value: value}
	elapsed := time.Since(start)
	e.logger.Debug("peer returned",
		logging.String("host", target.Name), logging.String("segment", target.Segment.String()),
		logging.Duration("elapsed", elapsed))
	if e.observer != nil {
		e.observer(res, elapsed)
	}
	return res, nil
}
