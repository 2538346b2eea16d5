// Package importer replays formatted queries as create-card calls, one at a
// time, logging each failure and moving on to the next entry.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/crimson-sun/cardport/internal/connector"
	"github.com/crimson-sun/cardport/internal/connector/httpclient"
	"github.com/crimson-sun/cardport/internal/model"
)

// DefaultDescription is used for entries without a description.
const DefaultDescription = "Imported via cardport"

// Options are the per-target values applied to every card.
type Options struct {
	TargetDatabaseID    int64  // database id on the target instance
	DefaultCollectionID int64  // collection for entries without collection_id
	DefaultDescription  string // description for entries without one
}

// Summary counts the outcome of one Run.
type Summary struct {
	Created int
	Failed  int
}

// Option configures an Importer.
type Option func(*Importer)

// WithReport sets where success lines are printed. Default: os.Stdout.
func WithReport(w io.Writer) Option {
	return func(im *Importer) { im.report = w }
}

// WithLogger sets the logger used for failures. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(im *Importer) { im.logger = l }
}

// Importer creates one card per formatted query. It performs no existence
// check, so running it twice creates duplicates.
type Importer struct {
	creator connector.CardCreator
	opts    Options
	report  io.Writer
	logger  *slog.Logger
}

// New creates an Importer that sends cards through creator.
func New(creator connector.CardCreator, opts Options, options ...Option) *Importer {
	if opts.DefaultDescription == "" {
		opts.DefaultDescription = DefaultDescription
	}
	im := &Importer{
		creator: creator,
		opts:    opts,
		report:  os.Stdout,
		logger:  slog.Default(),
	}
	for _, o := range options {
		o(im)
	}
	return im
}

// BuildRequest derives the create-card body for q. The database id is always
// replaced with opts.TargetDatabaseID; other dataset_query keys pass through.
func BuildRequest(q model.Query, opts Options) model.CardRequest {
	description := opts.DefaultDescription
	if q.Description != nil {
		description = *q.Description
	}
	collectionID := opts.DefaultCollectionID
	if q.CollectionID != nil {
		collectionID = *q.CollectionID
	}

	return model.CardRequest{
		Name:         q.Name,
		Description:  description,
		CollectionID: collectionID,
		Display:      model.CardDisplayTable,
		Type:         model.CardTypeQuestion,
		DatasetQuery: model.CardQuery{
			Database: opts.TargetDatabaseID,
			Type:     q.DatasetQuery.Type,
			Native:   q.DatasetQuery.Native,
			Extra:    q.DatasetQuery.Extra,
		},
		VisualizationSettings: map[string]any{},
	}
}

// Run imports queries sequentially. Individual failures are logged and
// counted. Cancelling ctx lets the in-flight call finish and then stops the
// loop, returning ctx.Err() with the partial summary.
func (im *Importer) Run(ctx context.Context, queries []model.Query) (Summary, error) {
	logger := im.logger.With("run", uuid.NewString())
	logger.Info("importing cards",
		"count", len(queries),
		"target_database", im.opts.TargetDatabaseID,
		"default_collection", im.opts.DefaultCollectionID,
	)

	var sum Summary
	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			logger.Warn("import interrupted", "done", i, "remaining", len(queries)-i)
			return sum, err
		}

		card, err := im.createCard(ctx, q)
		if err != nil {
			sum.Failed++
			attrs := []any{"name", q.Name, "error", err}
			var apiErr *httpclient.APIError
			if errors.As(err, &apiErr) {
				attrs = append(attrs, "status", apiErr.StatusCode)
			}
			logger.Error("card import failed", attrs...)
			continue
		}

		sum.Created++
		logger.Debug("card created", "id", card.ID, "name", card.Name)
		fmt.Fprintf(im.report, "Created card #%d - %s\n", card.ID, card.Name)
	}

	logger.Info("import finished", "created", sum.Created, "failed", sum.Failed)
	return sum, nil
}

// createCard sends one request. Cancelling ctx does not abort a call that has
// already started; Run checks ctx between entries instead.
func (im *Importer) createCard(ctx context.Context, q model.Query) (model.Card, error) {
	card, err := im.creator.CreateCard(context.WithoutCancel(ctx), BuildRequest(q, im.opts))
	if err != nil {
		return model.Card{}, fmt.Errorf("create card %q: %w", q.Name, err)
	}
	return card, nil
}
