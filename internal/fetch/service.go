package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/commitpulse/internal/activity"
	"github.com/Sumatoshi-tech/commitpulse/internal/aggregate"
	"github.com/Sumatoshi-tech/commitpulse/internal/alias"
)

const daysPerWeek = 7

// Request describes one collection run.
type Request struct {
	Owner string
	Repos []string
	// Weeks bounds the lookback window.
	Weeks int
	// Workers caps concurrent repository workers.
	Workers int
	// CommitDetails enables the per-commit extra request that resolves
	// addition and deletion counts.
	CommitDetails bool
}

// Service coordinates one collection run: one worker per repository fills
// a worker-local engine, detaches it as a partial, and a single reducer
// folds the partials into the authoritative engine.
type Service struct {
	client   *Client
	resolver *alias.Table
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewService creates a collection service.
func NewService(client *Client, resolver *alias.Table, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		client:   client,
		resolver: resolver,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// Collect fetches activity for every repository in the request and returns
// the folded engine, still open for further ingestion. A worker that fails
// marks the run partial instead of aborting the other workers; the first
// context cancellation aborts the run.
func (s *Service) Collect(ctx context.Context, req Request) (*aggregate.Engine, error) {
	ctx, span := s.tracer.Start(ctx, "fetch.collect",
		trace.WithAttributes(
			attribute.String("github.owner", req.Owner),
			attribute.Int("github.repos", len(req.Repos)),
		))
	defer span.End()

	since := time.Now().UTC().AddDate(0, 0, -req.Weeks*daysPerWeek)
	engine := aggregate.NewEngine(s.resolver)

	workers := req.Workers
	if workers <= 0 || workers > len(req.Repos) {
		workers = len(req.Repos)
	}

	repoCh := make(chan string)
	partialCh := make(chan aggregate.Partial, len(req.Repos))

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for repo := range repoCh {
				partialCh <- s.collectRepo(ctx, req, repo, since)
			}
		}()
	}

	go func() {
		defer close(repoCh)

		for _, repo := range req.Repos {
			select {
			case repoCh <- repo:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(partialCh)
	}()

	for partial := range partialCh {
		err := engine.Fold(partial)
		if err != nil {
			return nil, fmt.Errorf("fold partial: %w", err)
		}
	}

	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	return engine, nil
}

// collectRepo fetches one repository's activity into a worker-local engine
// and detaches the result. Failures produce an incomplete partial carrying
// whatever was collected before the error.
func (s *Service) collectRepo(
	ctx context.Context, req Request, repo string, since time.Time,
) aggregate.Partial {
	ctx, span := s.tracer.Start(ctx, "fetch.repo",
		trace.WithAttributes(attribute.String("github.repo", repo)))
	defer span.End()

	local := aggregate.NewEngine(s.resolver)

	err := s.fillRepo(ctx, req, repo, since, local)
	if err != nil {
		s.logger.Error("repository collection incomplete", "repo", repo, "error", err)
		local.MarkPartial()
	}

	return local.Detach()
}

func (s *Service) fillRepo(
	ctx context.Context, req Request, repo string, since time.Time,
	local *aggregate.Engine,
) error {
	commits, err := s.client.CommitUnits(ctx, req.Owner, repo, since, req.CommitDetails)
	if err != nil {
		return err
	}

	ingestErr := local.IngestAll(commits)
	if ingestErr != nil {
		return ingestErr
	}

	opened, err := s.client.PROpenedUnits(ctx, req.Owner, repo, since)
	if err != nil {
		return err
	}

	merged, err := s.client.PRMergedUnits(ctx, req.Owner, repo, since)
	if err != nil {
		return err
	}

	ingestErr = local.IngestAll(append(opened, merged...))
	if ingestErr != nil {
		return ingestErr
	}

	for _, user := range contributorLogins(commits, opened, merged) {
		reviewed, reviewErr := s.client.PRReviewedUnits(ctx, req.Owner, repo, user, since)
		if reviewErr != nil {
			return reviewErr
		}

		ingestErr = local.IngestAll(reviewed)
		if ingestErr != nil {
			return ingestErr
		}
	}

	s.logger.Info("repository collected",
		"repo", repo, "commits", len(commits), "prs_opened", len(opened), "prs_merged", len(merged))

	return nil
}

// contributorLogins returns the distinct usernames observed in the batches
// so far, sorted for deterministic request ordering. Review activity can
// only be searched per user, so the observed contributors bound the search.
func contributorLogins(batches ...[]activity.Unit) []string {
	set := make(map[string]struct{})

	for _, batch := range batches {
		for _, unit := range batch {
			if unit.Username != "" {
				set[unit.Username] = struct{}{}
			}
		}
	}

	logins := make([]string, 0, len(set))
	for login := range set {
		logins = append(logins, login)
	}

	sort.Strings(logins)

	return logins
}
