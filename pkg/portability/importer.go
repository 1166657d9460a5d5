package portability

import (
	"context"
	"log/slog"
	"strings"

	"github.com/recadm/recadm/pkg/client"
	"github.com/recadm/recadm/pkg/logging"
	"github.com/recadm/recadm/pkg/record"
)

// Importer creates one record per parsed CSV row, sequentially, in row
// order. Row failures are counted and logged, never raised: a bad row
// must not stop the rest of the batch.
type Importer struct {
	// Client performs the create calls.
	Client client.Client

	// Require lists field names a row must carry non-blank for the row
	// to be imported. Rows failing the check are skipped, not created.
	Require []string

	// Logger receives per-row failure details. Defaults to a nop logger.
	Logger *slog.Logger
}

// Result summarizes an import run.
type Result struct {
	// Created is the number of rows successfully created.
	Created int
	// Skipped is the number of rows missing a required field.
	Skipped int
	// Failed is the number of rows whose create call failed.
	Failed int
}

// Total is the number of rows considered.
func (r Result) Total() int {
	return r.Created + r.Skipped + r.Failed
}

// Run imports the rows. There is no cancellation beyond ctx: once started
// the batch runs to completion, accumulating counts.
func (im *Importer) Run(ctx context.Context, rows []record.Fields) Result {
	log := im.Logger
	if log == nil {
		log = logging.Nop()
	}

	var res Result
	for i, row := range rows {
		if missing := im.missingRequired(row); missing != "" {
			log.Debug("skipping row", "row", i+1, "missing", missing)
			res.Skipped++
			continue
		}
		if _, err := im.Client.Create(ctx, row); err != nil {
			log.Warn("row create failed", "row", i+1, "error", err)
			res.Failed++
			continue
		}
		res.Created++
	}
	return res
}

// missingRequired returns the first required field the row lacks, or "".
// A field counts as present when its string form is non-blank.
func (im *Importer) missingRequired(row record.Fields) string {
	for _, name := range im.Require {
		v, ok := row.Get(name)
		if !ok {
			return name
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			return name
		}
	}
	return ""
}
