// Package dashboard keeps a live, per-viewer copy of the print job listing.
//
// A View is mounted for one identity and filter. It fetches the listing once,
// subscribes to the print job change feed and refetches the whole listing on
// every event. Results of a refresh are applied only if no refresh issued after
// it has been applied already, so a slow early response never overwrites a
// newer one. Closing the view drops the subscription and any late results.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"printconnect/internal/changefeed"
	"printconnect/internal/model"
	"printconnect/internal/service"
)

// ErrClosed is returned by Refresh once the view is closed.
var ErrClosed = errors.New("dashboard view closed")

// Lister is the part of service.PrintJobService a view reads through.
type Lister interface {
	List(ctx context.Context, actor *model.Identity, filter service.JobFilter) (*service.JobListResult, error)
}

// Snapshot is one applied listing. Seq is the refresh that produced it.
type Snapshot struct {
	Seq    uint64                 `json:"seq"`
	At     time.Time              `json:"at"`
	Result *service.JobListResult `json:"result"`
}

type View struct {
	lister Lister
	actor  *model.Identity
	filter service.JobFilter
	log    zerolog.Logger
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	issued  uint64
	applied uint64
	current Snapshot
	has     bool
	closed  bool
	sub     changefeed.Subscription
	updates chan Snapshot
}

// Options tunes Mount. The zero value is usable.
type Options struct {
	Logger zerolog.Logger
	Now    func() time.Time
}

// Mount performs the initial fetch and opens one change feed subscription.
// The returned view must be closed by the caller.
func Mount(ctx context.Context, lister Lister, feed changefeed.Subscriber, actor *model.Identity, filter service.JobFilter, opts Options) (*View, error) {
	if actor == nil {
		return nil, service.ErrUnauthenticated
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	vctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	v := &View{
		lister:  lister,
		actor:   actor,
		filter:  filter,
		log:     opts.Logger.With().Str("component", "dashboard").Str("user_id", actor.ID).Logger(),
		now:     opts.Now,
		ctx:     vctx,
		cancel:  cancel,
		updates: make(chan Snapshot, 1),
	}

	if err := v.Refresh(ctx); err != nil {
		v.Close()
		return nil, err
	}

	sub, err := feed.Subscribe(vctx, changefeed.TablePrintJobs, v.onChange)
	if err != nil {
		v.Close()
		return nil, err
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		_ = sub.Close()
		return nil, ErrClosed
	}
	v.sub = sub
	v.mu.Unlock()
	return v, nil
}

func (v *View) onChange(ev changefeed.Event) {
	if err := v.Refresh(v.ctx); err != nil && !errors.Is(err, ErrClosed) {
		v.log.Warn().
			Str("event", "dashboard_refresh_failed").
			Str("change_type", string(ev.Type)).
			Str("print_job_id", ev.RowID).
			Str("error_message", err.Error()).
			Send()
	}
}

// Refresh refetches the listing. Call it after a local mutation as well as on feed events.
// A result that arrives after a newer one has been applied is discarded.
func (v *View) Refresh(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	v.issued++
	seq := v.issued
	v.mu.Unlock()

	res, err := v.lister.List(ctx, v.actor, v.filter)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	if err != nil {
		return err
	}
	if seq <= v.applied {
		v.log.Debug().Uint64("seq", seq).Uint64("applied", v.applied).Msg("stale dashboard refresh dropped")
		return nil
	}
	v.applied = seq
	v.current = Snapshot{Seq: seq, At: v.now().UTC(), Result: res}
	v.has = true

	// keep only the latest undelivered snapshot
	select {
	case <-v.updates:
	default:
	}
	v.updates <- v.current
	return nil
}

// Snapshot returns the most recently applied listing.
func (v *View) Snapshot() (Snapshot, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current, v.has
}

// Updates delivers each applied snapshot. Slow readers only see the latest one.
// The channel is closed by Close.
func (v *View) Updates() <-chan Snapshot {
	return v.updates
}

// Close unsubscribes and discards results of refreshes still in flight. It is idempotent.
func (v *View) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	sub := v.sub
	v.sub = nil
	close(v.updates)
	v.mu.Unlock()

	v.cancel()
	if sub != nil {
		return sub.Close()
	}
	return nil
}
