// Package harvest partitions an identifier range across the valid
// sessions and drives one concurrent worker per segment.
package harvest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"cedulero-backend/lib/cedula"
	"cedulero-backend/lib/recordstore"
	"cedulero-backend/lib/scrapers/apia"
	"cedulero-backend/lib/sessionstore"
)

var ErrNoValidSessions = errors.New("harvest: no valid sessions within the validity window")

// Prober performs the two-step form interaction for one
// identifier with one session. Satisfied by *apia.Client.
type Prober interface {
	Probe(ctx context.Context, ci string, session sessionstore.Session) (string, error)
}

// Segment is a contiguous sub-range of the identifier range owned
// by exactly one session's worker. End is exclusive.
type Segment struct {
	Start int
	End   int
	Lease sessionstore.Lease
}

// Partition splits [start, end) into one contiguous segment per
// lease. Segments cover the range exactly: every segment gets
// floor(length/n) identifiers and the last segment absorbs the
// division remainder so no trailing identifiers are dropped.
func Partition(start, end int, leases []sessionstore.Lease) []Segment {
	size := (end - start) / len(leases)

	segments := make([]Segment, len(leases))
	for i, lease := range leases {
		segStart := start + i*size
		segEnd := segStart + size
		if i == len(leases)-1 {
			segEnd = end
		}
		segments[i] = Segment{Start: segStart, End: segEnd, Lease: lease}
	}
	return segments
}

// Report summarizes one completed run.
type Report struct {
	// identifiers probed and extracted successfully
	Processed int
	// identifiers lost to probe or extraction failures
	Failed int
	// identifiers skipped locally by checksum validation
	Skipped int
	// sessions that carried a segment
	Sessions int
	// rows appended to the durable store
	Rows    int
	Elapsed time.Duration
}

type tally struct {
	processed int
	failed    int
	skipped   int
}

type Scheduler struct {
	Store  *sessionstore.Store
	Prober Prober
	Sink   *recordstore.Sink
	// path of the durable CSV store
	Output string
	Layout apia.FieldLayout
	// zero means sessionstore.DefaultWindow
	Window time.Duration
}

// Run distributes [start, end) across the currently valid
// sessions and blocks until every worker has finished and the
// sink has been flushed. Per-identifier failures are logged and
// skipped; the only run-level failure before work starts is the
// absence of valid sessions.
func (s Scheduler) Run(ctx context.Context, start, end int) (Report, error) {
	window := s.Window
	if window == 0 {
		window = sessionstore.DefaultWindow
	}

	leases := s.Store.Valid(time.Now(), window)
	if len(leases) == 0 {
		return Report{}, ErrNoValidSessions
	}

	began := time.Now()
	segments := Partition(start, end, leases)

	slog.InfoContext(ctx, "starting harvest",
		"start", start,
		"end", end,
		"sessions", len(segments),
	)

	// one tally slot per worker, merged after the join barrier
	tallies := make([]tally, len(segments))
	var wg sync.WaitGroup
	for i, segment := range segments {
		wg.Add(1)
		go func(i int, segment Segment) {
			defer wg.Done()
			tallies[i] = s.work(ctx, segment)
		}(i, segment)
	}
	wg.Wait()

	rows, err := s.Sink.DrainAndPersist(s.Output)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Sessions: len(segments),
		Rows:     rows,
		Elapsed:  time.Since(began),
	}
	for _, t := range tallies {
		report.Processed += t.processed
		report.Failed += t.failed
		report.Skipped += t.skipped
	}
	return report, nil
}

// work iterates one segment in ascending order against its leased
// session. A panic is contained here so sibling workers keep
// running and the final flush still happens.
func (s Scheduler) work(ctx context.Context, segment Segment) (t tally) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "segment worker panicked",
				"session", segment.Lease.Index,
				"panic", r,
			)
		}
	}()

	for n := segment.Start; n < segment.End; n++ {
		ci := cedula.Format(n)
		if !cedula.Validate(ci) {
			t.skipped++
			continue
		}

		raw, err := s.Prober.Probe(ctx, ci, segment.Lease.Session)
		if err != nil {
			slog.WarnContext(ctx, "probe failed", "ci", ci, "err", err)
			t.failed++
			continue
		}

		record, err := apia.Extract(ci, raw, s.Layout)
		if err != nil {
			slog.WarnContext(ctx, "extraction failed", "ci", ci, "err", err)
			t.failed++
			continue
		}

		s.Sink.Add(recordstore.Record{
			CI:         record.CI,
			GivenNames: record.GivenNames,
			Surnames:   record.Surnames,
			BirthDate:  record.BirthDate,
		})
		t.processed++
		slog.DebugContext(ctx, "processed ci", "ci", ci)
	}

	err := s.Store.MarkUsed(segment.Lease.Index, time.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to persist session usage",
			"session", segment.Lease.Index,
			"err", err,
		)
	}
	return t
}
