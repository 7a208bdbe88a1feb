package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/plan"
	"github.com/agbru/picalc/internal/series"
)

const (
	// DefaultSubjectPrefix prefixes the per-host request subject.
	DefaultSubjectPrefix = "picalc.segment"

	// serveQueueGroup lets several peers serve the same host name; NATS
	// delivers each request to one of them.
	serveQueueGroup = "picalc-peers"
)

// reply is the peer's answer to one segment request.
type reply struct {
	Value float64 `json:"value"`
	Error string  `json:"error,omitempty"`
}

// Requester is the part of *nats.Conn the transport needs.
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// NATSTransport sends each segment as a request on <Prefix>.<host> and
// waits for the reply of a peer started with Serve.
type NATSTransport struct {
	Conn   Requester
	Prefix string
}

// Subject returns the request subject for host.
func Subject(prefix, host string) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return prefix + "." + host
}

func (t *NATSTransport) Invoke(ctx context.Context, target HostTarget) (float64, error) {
	data, err := json.Marshal(target.Segment)
	if err != nil {
		return 0, fmt.Errorf("encoding segment %s: %w", target.Segment, err)
	}

	msg, err := t.Conn.RequestWithContext(ctx, Subject(t.Prefix, target.Name), data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		if errors.Is(err, nats.ErrNoResponders) {
			err = fmt.Errorf("no peer is serving %q: %w", target.Name, err)
		}
		return 0, apperrors.ConnectionFailure{Host: target.Name, Cause: err}
	}

	var r reply
	if err := json.Unmarshal(msg.Data, &r); err != nil {
		return 0, apperrors.ResultParseFailure{Host: target.Name, Output: string(msg.Data), Cause: err}
	}
	if r.Error != "" {
		return 0, apperrors.RemoteExecutionFailure{
			Host:       target.Name,
			Start:      target.Segment.Start,
			End:        target.Segment.End,
			ExitStatus: 1,
			Stderr:     r.Error,
		}
	}
	return r.Value, nil
}

// Serve answers segment requests addressed to host on nc until ctx ends.
func Serve(ctx context.Context, nc *nats.Conn, prefix, host string, sum series.SumFunc, logger logging.Logger) error {
	if sum == nil {
		sum = series.Sum
	}
	if logger == nil {
		logger = logging.Nop()
	}
	subject := Subject(prefix, host)
	sub, err := nc.QueueSubscribe(subject, serveQueueGroup, func(msg *nats.Msg) {
		resp := handle(ctx, msg.Data, sum, logger)
		if err := msg.Respond(resp); err != nil {
			logger.Error("failed to send reply", err, logging.String("subject", subject))
		}
	})
	if err != nil {
		return apperrors.ConnectionFailure{Host: host, Cause: err}
	}
	logger.Info("serving segments", logging.String("subject", subject))

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("draining subscription: %w", err)
	}
	return nil
}

// handle decodes one request, sums the segment and encodes the reply.
func handle(ctx context.Context, data []byte, sum series.SumFunc, logger logging.Logger) []byte {
	var seg plan.Segment
	var r reply
	switch err := json.Unmarshal(data, &seg); {
	case err != nil:
		r.Error = fmt.Sprintf("decoding segment: %v", err)
	case seg.End <= seg.Start:
		r.Error = fmt.Sprintf("segment %s is empty", seg)
	default:
		v, err := sum(ctx, seg)
		if err != nil {
			r.Error = err.Error()
		} else {
			r.Value = v
		}
	}
	if r.Error != "" {
		logger.Error("segment request failed", errors.New(r.Error))
	} else {
		logger.Debug("segment served", logging.String("segment", seg.String()))
	}
	out, _ := json.Marshal(r)
	return out
}
