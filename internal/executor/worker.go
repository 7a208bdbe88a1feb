package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/agbru/picalc/internal/plan"
	"github.com/agbru/picalc/internal/series"
)

// workerResponse is one line of a worker process's output: the segment it
// was asked for and either its sum or an error message.
type workerResponse struct {
	plan.Segment
	Value float64 `json:"value"`
	Error string  `json:"error,omitempty"`
}

// ServeWorker is the child-process side of the queue-process strategy. It
// reads JSON-encoded segments from r, one per line, and writes one JSON
// response per segment to w, in order, until r reaches EOF. Summing failures
// are reported in the response rather than by exiting, so the parent can
// name the failing segment.
func ServeWorker(ctx context.Context, r io.Reader, w io.Writer, sum series.SumFunc) error {
	if sum == nil {
		sum = series.Sum
	}
	opts := options{sum: sum}
	dec := json.NewDecoder(r)
	enc := json.NewEncoder(w)
	for {
		var seg plan.Segment
		if err := dec.Decode(&seg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decoding segment: %w", err)
		}

		resp := workerResponse{Segment: seg}
		res, err := opts.compute(ctx, seg)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Value = res.Value
		}
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("writing result: %w", err)
		}
	}
}
