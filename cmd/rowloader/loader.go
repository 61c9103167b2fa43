package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	mgo "github.com/rowdoc/core"
	"github.com/rowdoc/core/docbuilder"
	"github.com/rowdoc/core/rowmapping"
	"github.com/rowdoc/core/rowsource"
	"github.com/rowdoc/core/writer"
)

func run(ctx context.Context, opts runOptions) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck
	log := logger.Sugar().With("runID", uuid.New().String())

	schema, view, rows, err := loadInputs(opts)
	if err != nil {
		return err
	}
	log.Infow("loaded inputs", "collection", schema.Collection, "mappings", len(schema.Mappings), "rows", len(rows))

	var coll writer.Collection
	if !opts.DryRun {
		sess, err := mgo.DialModernMGO(opts.MongoURL)
		if err != nil {
			return fmt.Errorf("connecting to mongo: %w", err)
		}
		defer sess.Close()
		coll = writer.NewMgoCollection(sess.DB("").C(schema.Collection))
	}

	hasModifier := false
	for i := range schema.Mappings {
		if !schema.Mappings[i].IsMatchField && schema.Mappings[i].ModifierOp != rowmapping.OpNone {
			hasModifier = true
			break
		}
	}

	var (
		mu      sync.Mutex
		written int
		skipped int
		rowErrs docbuilder.RowErrors
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i, row := range rows {
		i, row := i, row
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			ok, err := processRow(gctx, schema, view, row, hasModifier, coll, opts.DryRun, log)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rowErrs.Add(i, err)
				return nil // keep going past individual row failures
			}
			if ok {
				written++
			} else {
				skipped++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Infow("run complete", "written", written, "skipped", skipped, "failed", len(rowErrs.Cases()))
	if !rowErrs.Empty() {
		return &rowErrs
	}
	return nil
}

// processRow builds the artifacts for one row and, unless dryRun, hands
// them to coll. Returns ok=false for an EmptyRow (spec.md §7).
func processRow(ctx context.Context, schema *rowmapping.Schema, view rowsource.RowView, row rowsource.Row, hasModifier bool, coll writer.Collection, dryRun bool, log *zap.SugaredLogger) (bool, error) {
	if hasModifier {
		query, err := docbuilder.BuildQueryDocument(schema.Mappings, view, row)
		if err != nil {
			return false, fmt.Errorf("building query document: %w", err)
		}
		if query == nil {
			return false, nil
		}

		var probe docbuilder.ExistenceProbe
		if !dryRun {
			probe = &writer.ExistenceProbe{Coll: coll}
		}
		result, err := docbuilder.BuildModifierUpdate(ctx, schema.Mappings, view, row, probe)
		if err != nil {
			return false, fmt.Errorf("building modifier update: %w", err)
		}
		for _, w := range result.Warnings {
			log.Warn(w)
		}
		if result.Document == nil {
			return false, nil
		}
		if dryRun {
			return true, nil
		}
		_, err = writer.Apply(ctx, coll, query, nil, result.Document)
		return err == nil, err
	}

	insertDoc, err := docbuilder.BuildInsertDocument(schema.Mappings, view, row, schema.TopLevel)
	if err != nil {
		return false, fmt.Errorf("building insert document: %w", err)
	}
	if insertDoc == nil {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	_, err = writer.Apply(ctx, coll, nil, insertDoc, nil)
	return err == nil, err
}

// loadInputs reads the schema, column, and row files named by opts.
func loadInputs(opts runOptions) (*rowmapping.Schema, rowsource.RowView, []rowsource.Row, error) {
	schemaBytes, err := os.ReadFile(opts.SchemaPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading schema file: %w", err)
	}
	schema, err := rowmapping.LoadSchema(schemaBytes)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := schema.Compile(rowmapping.NoopInterpolator{}); err != nil {
		return nil, nil, nil, fmt.Errorf("compiling schema: %w", err)
	}

	columnsBytes, err := os.ReadFile(opts.ColumnsPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading columns file: %w", err)
	}
	var columns []rowsource.ColumnSpec
	if err := yaml.Unmarshal(columnsBytes, &columns); err != nil {
		return nil, nil, nil, fmt.Errorf("parsing columns file: %w", err)
	}
	if err := rowsource.ResolveColumnTypes(columns); err != nil {
		return nil, nil, nil, err
	}
	view := rowsource.NewCSVView(columns)

	rowsFile, err := os.Open(opts.RowsPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening rows file: %w", err)
	}
	defer rowsFile.Close()
	rows, err := view.ReadAll(rowsFile)
	if err != nil {
		return nil, nil, nil, err
	}

	return schema, view, rows, nil
}
