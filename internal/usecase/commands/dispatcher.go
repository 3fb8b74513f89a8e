package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"feasibility-backend/internal/broker"
	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/pkg/clock"
	"feasibility-backend/internal/pkg/errs"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var ErrDispatch = errs.New("query could not be dispatched to any broker")

// BrokerOutcome is the result of dispatching one query to one broker.
type BrokerOutcome struct {
	Broker        query.BrokerType
	BrokerQueryID string
	Err           error
}

type DispatchOutcome struct {
	QueryID uuid.UUID
	Brokers []BrokerOutcome
	// Skipped lists brokers that already held a dispatch record for the query.
	Skipped []query.BrokerType
}

// Accepted lists the brokers that took the query in this dispatch.
func (o *DispatchOutcome) Accepted() []query.BrokerType {
	var out []query.BrokerType
	for _, b := range o.Brokers {
		if b.Err == nil {
			out = append(out, b.Broker)
		}
	}
	return out
}

// DispatchError carries the cause from every broker when none accepted the query.
type DispatchError struct {
	QueryID  uuid.UUID
	Outcomes []BrokerOutcome
}

func (e *DispatchError) Error() string {
	causes := make([]string, 0, len(e.Outcomes))
	for _, o := range e.Outcomes {
		causes = append(causes, fmt.Sprintf("%s: %v", o.Broker, o.Err))
	}
	return fmt.Sprintf("dispatch of query %s failed on every broker: %s", e.QueryID, strings.Join(causes, "; "))
}

type Dispatcher interface {
	Dispatch(ctx context.Context, q *query.Query) (*DispatchOutcome, error)
}

type dispatcherImpl struct {
	brokers    []broker.Client
	translator Translator
	dispatches DispatchRepository
	clock      clock.Clock
	logger     *slog.Logger
}

func NewDispatcher(
	brokers []broker.Client,
	translator Translator,
	dispatches DispatchRepository,
	clock clock.Clock,
	logger *slog.Logger,
) Dispatcher {
	return &dispatcherImpl{
		brokers:    brokers,
		translator: translator,
		dispatches: dispatches,
		clock:      clock,
		logger:     logger,
	}
}

// Dispatch publishes q to every configured broker that does not have it yet.
// It succeeds if at least one broker accepted the query and records a dispatch for each of them.
func (d *dispatcherImpl) Dispatch(ctx context.Context, q *query.Query) (*DispatchOutcome, error) {
	existing, err := d.dispatches.FindByQuery(ctx, q.ID())
	if err != nil {
		return nil, errs.Wrap(err, "failed to load dispatch records")
	}
	dispatched := make(map[query.BrokerType]bool, len(existing))
	for _, rec := range existing {
		dispatched[rec.BrokerType] = true
	}

	outcome := &DispatchOutcome{QueryID: q.ID()}
	var pending []broker.Client
	for _, c := range d.brokers {
		if dispatched[c.Type()] {
			outcome.Skipped = append(outcome.Skipped, c.Type())
			continue
		}
		pending = append(pending, c)
	}
	if len(pending) == 0 {
		return outcome, nil
	}

	forms, failures := d.translate(ctx, q.Content(), pending)

	// Broker calls are not abandoned once started, even if the caller goes away.
	bctx := context.WithoutCancel(ctx)
	results := make([]BrokerOutcome, len(pending))
	var g errgroup.Group
	for i, c := range pending {
		g.Go(func() error {
			results[i] = d.dispatchTo(bctx, c, q.ID(), forms, failures)
			return nil
		})
	}
	_ = g.Wait()
	outcome.Brokers = results

	now := d.clock.Now()
	var records []query.DispatchRecord
	for _, r := range results {
		if r.Err != nil {
			d.logger.Warn("broker dispatch failed",
				"query_id", q.ID(),
				"broker", string(r.Broker),
				"error", r.Err.Error())
			continue
		}
		rec, err := query.NewDispatchRecord(q.ID(), r.Broker, r.BrokerQueryID, now)
		if err != nil {
			return nil, errs.Wrapf(err, "dispatch record for %s", r.Broker)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		if len(outcome.Skipped) > 0 {
			return outcome, nil
		}
		return nil, errs.Mark(&DispatchError{QueryID: q.ID(), Outcomes: results}, ErrDispatch)
	}

	if err := d.dispatches.Save(bctx, records); err != nil {
		d.closeAll(bctx, pending, results)
		return nil, errs.Wrap(err, "failed to persist dispatch records")
	}

	d.logger.Info("query dispatched",
		"query_id", q.ID(),
		"accepted", len(records),
		"failed", len(results)-len(records))
	return outcome, nil
}

// translate produces each media type once. A failed translation only fails the brokers that need it.
func (d *dispatcherImpl) translate(ctx context.Context, content query.Content, clients []broker.Client) (map[query.MediaType]string, map[query.MediaType]error) {
	forms := make(map[query.MediaType]string)
	failures := make(map[query.MediaType]error)
	for _, c := range clients {
		for _, mt := range c.MediaTypes() {
			if _, ok := forms[mt]; ok {
				continue
			}
			if _, ok := failures[mt]; ok {
				continue
			}
			out, err := d.translator.Translate(ctx, content, []query.MediaType{mt})
			if err != nil {
				failures[mt] = err
				continue
			}
			forms[mt] = out[mt]
		}
	}
	return forms, failures
}

func (d *dispatcherImpl) dispatchTo(
	ctx context.Context,
	c broker.Client,
	localID uuid.UUID,
	forms map[query.MediaType]string,
	failures map[query.MediaType]error,
) BrokerOutcome {
	out := BrokerOutcome{Broker: c.Type()}
	for _, mt := range c.MediaTypes() {
		if err, failed := failures[mt]; failed {
			out.Err = errs.Wrapf(err, "translate for %s", c.Type())
			return out
		}
	}

	id, err := c.CreateQuery(ctx, localID)
	if err != nil {
		out.Err = errs.Wrap(err, "create broker query")
		return out
	}
	out.BrokerQueryID = id

	if err := d.defineAndPublish(ctx, c, id, forms); err != nil {
		out.Err = err
		if cerr := c.CloseQuery(ctx, id); cerr != nil {
			d.logger.Debug("close after failed dispatch", "broker", string(c.Type()), "broker_query_id", id, "error", cerr.Error())
		}
	}
	return out
}

func (d *dispatcherImpl) defineAndPublish(ctx context.Context, c broker.Client, id string, forms map[query.MediaType]string) error {
	for _, mt := range c.MediaTypes() {
		if err := c.AddQueryDefinition(ctx, id, mt, forms[mt]); err != nil {
			return errs.Wrapf(err, "add %s definition", mt)
		}
	}
	if err := c.PublishQuery(ctx, id); err != nil {
		return errs.Wrap(err, "publish broker query")
	}
	return nil
}

func (d *dispatcherImpl) closeAll(ctx context.Context, clients []broker.Client, results []BrokerOutcome) {
	for i, r := range results {
		if r.Err != nil {
			continue
		}
		if err := clients[i].CloseQuery(ctx, r.BrokerQueryID); err != nil {
			d.logger.Warn("failed to close unrecorded broker query",
				"broker", string(r.Broker),
				"broker_query_id", r.BrokerQueryID,
				"error", err.Error())
		}
	}
}
