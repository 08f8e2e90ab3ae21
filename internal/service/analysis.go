package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/codelens/internal/apperror"
	"github.com/sakif/codelens/internal/model"
	"github.com/sakif/codelens/internal/repository"
	"github.com/sakif/codelens/internal/resolver"
	"github.com/sakif/codelens/internal/scorer"
)

// ContentFetcher retrieves the raw text for a parsed file reference.
// *resolver.Fetcher is the production implementation; tests inject a stub.
type ContentFetcher interface {
	Fetch(ctx context.Context, ref *resolver.FileRef) (string, error)
}

// AnalysisService runs the analysis pipeline:
//
//	parse URL → fetch raw content → score → save report → recompute stats
//
// The pipeline is strictly sequential and can only fail at its two external
// boundaries: a URL that doesn't parse (validation error) and a fetch that
// doesn't complete (unavailable). Scoring is pure and saving is local.
//
// CONCURRENCY NOTE:
// Two concurrent analyses for the same user race on the stats recompute; the
// last writer wins. Since the average is recomputed from the full report
// history, never incrementally adjusted, the loser's write is merely stale
// by one report, and the next analysis corrects it.
type AnalysisService struct {
	reports repository.ReportRepository
	users   repository.UserRepository
	fetcher ContentFetcher
	scorer  *scorer.Scorer
	logger  *slog.Logger
}

// NewAnalysisService creates an AnalysisService.
func NewAnalysisService(
	reports repository.ReportRepository,
	users repository.UserRepository,
	fetcher ContentFetcher,
	sc *scorer.Scorer,
	logger *slog.Logger,
) *AnalysisService {
	return &AnalysisService{
		reports: reports,
		users:   users,
		fetcher: fetcher,
		scorer:  sc,
		logger:  logger,
	}
}

// Analyze runs the full pipeline for one GitHub blob URL on behalf of userID
// and returns the saved report.
func (s *AnalysisService) Analyze(ctx context.Context, userID, rawURL string) (*model.Report, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, apperror.ValidationFailed("url", "url is required")
	}

	// Resolving: a non-matching URL is an expected user mistake, reported
	// as a validation failure with the shape we wanted.
	ref, ok := resolver.ParseBlobURL(rawURL)
	if !ok {
		return nil, apperror.ValidationFailed("url",
			"not a GitHub file URL (expected https://github.com/{owner}/{repo}/blob/{branch}/{path})")
	}

	// Fetching: the one suspension point. Any transport, status or decoding
	// failure collapses into a single "unavailable" outcome.
	content, err := s.fetcher.Fetch(ctx, ref)
	if err != nil {
		s.logger.Warn("raw content fetch failed",
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Unavailable(fmt.Sprintf("could not fetch content for %s", ref.FileName))
	}

	// Scoring: pure, cannot fail.
	report := s.scorer.Score(content, ref.FileName, rawURL)
	report.UserID = userID

	// Persisting.
	if err := s.reports.Save(ctx, &report); err != nil {
		return nil, fmt.Errorf("service/analysis: saving report for user %s: %w", userID, err)
	}

	if err := s.recomputeStats(ctx, userID); err != nil {
		return nil, fmt.Errorf("service/analysis: updating stats for user %s: %w", userID, err)
	}

	s.logger.Info("analysis completed",
		slog.String("userID", userID),
		slog.String("file", ref.FileName),
		slog.Int("score", report.OverallScore),
		slog.Int("issues", len(report.Issues)),
	)

	return &report, nil
}

// ListForUser returns the caller's reports, newest first.
func (s *AnalysisService) ListForUser(ctx context.Context, userID string) ([]model.Report, error) {
	reports, err := s.reports.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/analysis: listing reports for user %s: %w", userID, err)
	}
	return reports, nil
}

// GetByID returns one of the caller's reports. A report owned by someone
// else is indistinguishable from a missing one.
func (s *AnalysisService) GetByID(ctx context.Context, userID, id string) (*model.Report, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "report ID is required")
	}
	return s.reports.GetByID(ctx, userID, id)
}

// recomputeStats rewrites the user's aggregates from the complete report
// history. Recomputing from scratch every time (instead of folding the new
// score into a running average) means a lost or duplicated update can never
// make the stored average drift permanently.
func (s *AnalysisService) recomputeStats(ctx context.Context, userID string) error {
	reports, err := s.reports.ListForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("listing reports: %w", err)
	}

	var avg float64
	if len(reports) > 0 {
		sum := 0
		for _, r := range reports {
			sum += r.OverallScore
		}
		avg = float64(sum) / float64(len(reports))
	}

	return s.users.UpdateStats(ctx, userID, len(reports), avg)
}
