package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"cpe-tracking-backend/internal/model"
	"cpe-tracking-backend/internal/parse"
	"cpe-tracking-backend/internal/report"
)

// Store defines the read operations behind the reporting endpoints.
type Store interface {
	ListDevices(ctx context.Context, p parse.Params) ([]model.Record, error)
	FilterOptions(ctx context.Context) (model.FilterOptions, error)
	DashboardStats(ctx context.Context) (model.DashboardStats, error)
	Ping(ctx context.Context) error
}

// Options tunes query execution.
type Options struct {
	// QueryTimeout bounds each call. Zero means no bound beyond the caller's context.
	QueryTimeout time.Duration
	// Parallel runs independent sub-queries concurrently, each on its own
	// pooled connection. Otherwise they share one connection in order.
	Parallel     bool
	StatusValues report.StatusValues
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db      *gorm.DB
	builder *report.Builder
	opts    Options
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, builder *report.Builder, opts Options) Store {
	if opts.StatusValues == (report.StatusValues{}) {
		opts.StatusValues = report.DefaultStatusValues
	}
	return &gormStore{db: db, builder: builder, opts: opts}
}

// ListDevices returns the devices matching p. The result is never nil on success.
func (s *gormStore) ListDevices(ctx context.Context, p parse.Params) ([]model.Record, error) {
	q := s.builder.Devices(p)
	if err := report.Guard(q.SQL); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var records []model.Record
	err := s.withConn(ctx, func(tx *gorm.DB) error {
		rows, err := tx.Raw(q.SQL, q.Args...).Rows()
		if err != nil {
			return err
		}
		defer rows.Close()

		records, err = scanRecords(rows, q.Columns)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return records, nil
}

// FilterOptions returns the distinct values of every filterable dimension.
func (s *gormStore) FilterOptions(ctx context.Context) (model.FilterOptions, error) {
	results, err := collect(ctx, s, s.builder.FilterOptionQueries(), distinctValues)
	if err != nil {
		return model.FilterOptions{}, fmt.Errorf("filter options: %w", err)
	}

	return model.FilterOptions{
		Categories:         results[report.OptionCategories],
		AcceptanceStatuses: results[report.OptionAcceptanceStatuses],
		AllocationStatuses: results[report.OptionAllocationStatuses],
		StateCities:        results[report.OptionStateCities],
		FlowTypes:          results[report.OptionFlowTypes],
		TicketTypes:        results[report.OptionTicketTypes],
	}, nil
}

// DashboardStats returns the total device count and the per-status counts.
func (s *gormStore) DashboardStats(ctx context.Context) (model.DashboardStats, error) {
	results, err := collect(ctx, s, s.builder.StatsQueries(s.opts.StatusValues), count)
	if err != nil {
		return model.DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}

	return model.DashboardStats{
		TotalDevices: results[report.StatTotalDevices],
		Allocated:    results[report.StatAllocated],
		Available:    results[report.StatAvailable],
		Repaired:     results[report.StatRepaired],
		Repairing:    results[report.StatRepairing],
		Faulty:       results[report.StatFaulty],
	}, nil
}

// Ping checks that a connection can be obtained.
func (s *gormStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *gormStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.QueryTimeout)
}

// withConn runs fn on one connection held for its whole duration and released
// afterwards. Failing to get the connection is ErrUnavailable; any error from
// fn is ErrQuery.
func (s *gormStore) withConn(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		// A session clones the statement per call so binds never leak between queries.
		if err := fn(tx.Session(&gorm.Session{})); err != nil {
			return fmt.Errorf("%w: %w", ErrQuery, err)
		}
		return nil
	})
	if err == nil || errors.Is(err, ErrQuery) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// collect guards and runs a batch of named sub-queries and returns their
// results keyed by name. Any failure discards the whole batch.
func collect[T any](ctx context.Context, s *gormStore, queries []report.NamedQuery, run func(tx *gorm.DB, q report.Query) (T, error)) (map[string]T, error) {
	if err := report.GuardAll(queries...); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	results := make([]T, len(queries))
	if s.opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, nq := range queries {
			i, nq := i, nq
			g.Go(func() error {
				return s.withConn(gctx, func(tx *gorm.DB) error {
					v, err := run(tx, nq.Query)
					if err != nil {
						return fmt.Errorf("%s: %w", nq.Name, err)
					}
					results[i] = v
					return nil
				})
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		err := s.withConn(ctx, func(tx *gorm.DB) error {
			for i, nq := range queries {
				v, err := run(tx, nq.Query)
				if err != nil {
					return fmt.Errorf("%s: %w", nq.Name, err)
				}
				results[i] = v
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	byName := make(map[string]T, len(queries))
	for i, nq := range queries {
		byName[nq.Name] = results[i]
	}
	return byName, nil
}

func distinctValues(tx *gorm.DB, q report.Query) ([]string, error) {
	rows, err := tx.Raw(q.SQL, q.Args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

func count(tx *gorm.DB, q report.Query) (int64, error) {
	var n int64
	if err := tx.Raw(q.SQL, q.Args...).Row().Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
