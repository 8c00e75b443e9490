// Package export converts stored submissions into table rows and writes them
// out as CSV, JSON, console tables or a zip archive.
package export

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dbsmedya/formrows/internal/config"
	"github.com/dbsmedya/formrows/internal/logger"
	"github.com/dbsmedya/formrows/internal/metrics"
	"github.com/dbsmedya/formrows/internal/rows"
	"github.com/dbsmedya/formrows/internal/schema"
)

// Source supplies stored submissions and attachment files.
// *store.Store implements it.
type Source interface {
	EachSubmission(ctx context.Context, formID string, fn func(rows.Submission) error) error
	EachAttachment(ctx context.Context, formID string, fn func(instanceID, name string, content []byte) error) error
}

// Decryptor turns an encrypted submission into its plain form. It is called
// for every submission before conversion when set.
type Decryptor interface {
	Decrypt(ctx context.Context, sub rows.Submission, passphrases []string) (rows.Submission, error)
}

// Exporter converts the submissions of one form.
type Exporter struct {
	source    Source
	formID    string
	root      *schema.Field
	config    config.ExportConfig
	log       *logger.Logger
	metrics   *metrics.Collector
	decryptor Decryptor
}

// New creates an Exporter. metrics may be nil.
func New(source Source, formID string, root *schema.Field, cfg config.ExportConfig, log *logger.Logger, m *metrics.Collector) *Exporter {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Exporter{
		source:  source,
		formID:  formID,
		root:    root,
		config:  cfg,
		log:     log.WithForm(formID),
		metrics: m,
	}
}

// WithDecryptor sets the decryptor applied before conversion.
func (e *Exporter) WithDecryptor(d Decryptor) *Exporter {
	e.decryptor = d
	return e
}

// Table returns the rows of table across all stored submissions, in
// submission order.
func (e *Exporter) Table(ctx context.Context, table string, passphrases []string) ([]*rows.Row, error) {
	out, err := e.convert(ctx, []string{table}, passphrases)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// convert runs every submission through every table concurrently and
// returns one row slice per table. Each worker owns its walkers; results are
// reassembled in submission order.
func (e *Exporter) convert(ctx context.Context, tables []string, passphrases []string) ([][]*rows.Row, error) {
	for _, table := range tables {
		if _, err := e.root.Lookup(table); err != nil {
			return nil, err
		}
	}

	var subs []rows.Submission
	err := e.source.EachSubmission(ctx, e.formID, func(sub rows.Submission) error {
		subs = append(subs, sub)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Debugw("Converting submissions",
		"submissions", len(subs),
		"tables", len(tables),
		"workers", e.config.Workers,
	)

	results := make([][][]*rows.Row, len(subs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Workers)

	for i, sub := range subs {
		i, sub := i, sub
		g.Go(func() error {
			perTable, err := e.convertOne(gctx, sub, tables, passphrases)
			if err != nil {
				return fmt.Errorf("submission %s: %w", sub.InstanceID, err)
			}
			results[i] = perTable
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([][]*rows.Row, len(tables))
	for t := range tables {
		out[t] = []*rows.Row{}
		for _, perTable := range results {
			out[t] = append(out[t], perTable[t]...)
		}
	}
	return out, nil
}

func (e *Exporter) convertOne(ctx context.Context, sub rows.Submission, tables []string, passphrases []string) ([][]*rows.Row, error) {
	if e.decryptor != nil {
		var err error
		if sub, err = e.decryptor.Decrypt(ctx, sub, passphrases); err != nil {
			return nil, fmt.Errorf("failed to decrypt: %w", err)
		}
	}

	opts := rows.Options{
		WKT: e.config.WKT,
		OnCoercionFailure: func(key string, kind schema.Kind, text string) {
			e.metrics.CoercionFailure(e.formID, string(kind))
			e.log.Debugw("Dropped value that does not parse",
				"instance_id", sub.InstanceID,
				"key", key,
				"kind", kind,
				"text", text,
			)
		},
	}

	out := make([][]*rows.Row, len(tables))
	for t, table := range tables {
		start := time.Now()
		rs, err := rows.Convert(ctx, e.root, sub, table, opts)
		e.metrics.ObserveConversion(e.formID, table, len(rs), time.Since(start), err)
		if err != nil {
			return nil, err
		}
		out[t] = rs
	}
	return out, nil
}
