package scan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/auditlog"
	"memoryatlas/internal/logging"
)

// StageName labels logs and audit rows written by a scan.
const StageName = "scan"

// Source lists the recordings a scan reconciles against.
type Source interface {
	ListCandidates(ctx context.Context) ([]assets.Candidate, error)
}

// Counts summarises a scan pass.
type Counts struct {
	Inserted int
	Updated  int
	Skipped  int
	Errors   int
}

// Summary renders the counts for operators.
func (c Counts) Summary() string {
	return fmt.Sprintf("%d insert, %d update, %d skip", c.Inserted, c.Updated, c.Skipped)
}

// Scanner upserts source candidates into the store.
type Scanner struct {
	source Source
	store  *assets.Store
	trail  *auditlog.Trail
	logger *slog.Logger
}

// NewScanner builds a scanner over source.
func NewScanner(source Source, store *assets.Store, trail *auditlog.Trail, logger *slog.Logger) *Scanner {
	return &Scanner{
		source: source,
		store:  store,
		trail:  trail,
		logger: logging.NewComponentLogger(logger, StageName),
	}
}

// Run reconciles the catalogue against one snapshot of the source. The
// snapshot is read completely before any write so an unreadable source leaves
// the store untouched. A record that cannot be written is counted and the
// pass continues.
func (s *Scanner) Run(ctx context.Context, origin assets.Origin) (Counts, error) {
	if origin.Command == "" {
		origin.Command = StageName
	}
	var counts Counts

	candidates, err := s.source.ListCandidates(ctx)
	if err != nil {
		return counts, err
	}
	s.audit(ctx, origin, assets.ActionStart, "", map[string]any{"candidates": len(candidates)})

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}
		result, err := s.store.Upsert(ctx, origin, candidate)
		if err != nil {
			counts.Errors++
			logging.ErrorWithContext(s.logger, "record not written", "scan_error",
				logging.String(logging.FieldAssetID, candidate.ID),
				logging.Error(err),
			)
			// The failed upsert rolled back its own row.
			s.audit(context.WithoutCancel(ctx), origin, assets.ActionError, candidate.ID, map[string]any{"error": err.Error()})
			continue
		}
		switch result {
		case assets.UpsertInserted:
			counts.Inserted++
		case assets.UpsertUpdated:
			counts.Updated++
		default:
			counts.Skipped++
			continue
		}
		// Upsert already wrote the store row for this change.
		s.trailLog(origin, string(result), candidate.ID, map[string]any{"title": candidate.Title})
	}

	s.audit(context.WithoutCancel(ctx), origin, assets.ActionComplete, "", map[string]any{
		"inserted": counts.Inserted,
		"updated":  counts.Updated,
		"skipped":  counts.Skipped,
		"errors":   counts.Errors,
	})
	s.logger.Info("scan complete", logging.String("summary", counts.Summary()))
	if err := ctx.Err(); err != nil {
		return counts, errors.WithStack(err)
	}
	return counts, nil
}

func (s *Scanner) audit(ctx context.Context, origin assets.Origin, action, assetID string, detail map[string]any) {
	if err := s.store.LogAction(ctx, origin, action, assetID, detail); err != nil {
		s.logger.Warn("audit row not written", logging.String("action", action), logging.Error(err))
	}
	s.trailLog(origin, action, assetID, detail)
}

func (s *Scanner) trailLog(origin assets.Origin, action, assetID string, detail map[string]any) {
	if err := s.trail.Log(origin, action, assetID, detail); err != nil {
		s.logger.Warn("audit trail not written", logging.String("action", action), logging.Error(err))
	}
}
