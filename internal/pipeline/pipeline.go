package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adda-Baaj/iso-news-harvester/internal/domain"
	"github.com/Adda-Baaj/iso-news-harvester/internal/logger"
	"github.com/Adda-Baaj/iso-news-harvester/pkg/publishers"
)

// StubSource lists the article stubs of one source. It must not fail: errors
// are reported through an empty list.
type StubSource interface {
	ID() string
	ListStubs(ctx context.Context) []domain.Stub
}

// Extractor turns stubs into scraped articles, one per stub, in order.
type Extractor interface {
	ExtractAll(ctx context.Context, stubs []domain.Stub) []domain.ScrapedArticle
}

// ReportWriter persists the articles of a run.
type ReportWriter interface {
	Write(articles []domain.ScrapedArticle) (string, domain.Report, error)
}

// MergeFunc combines per-source lists with seeded stubs.
type MergeFunc func(lists [][]domain.Stub, seeded []domain.Stub) []domain.Stub

// Result summarises one run.
type Result struct {
	ReportPath  string
	Total       int
	Succeeded   int
	Failed      int
	NothingToDo bool
}

// Pipeline runs sources, merge, extraction, report writing and notification
// in sequence.
type Pipeline struct {
	Sources    []StubSource
	Seeds      []domain.Stub
	Merge      MergeFunc
	Extractor  Extractor
	Writer     ReportWriter
	Publishers []publishers.Publisher
	Log        logger.Logger
}

// Run executes one harvest. Only infrastructure failures (the report cannot be
// written) are returned; source, article and publisher failures are logged.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	if err := p.validate(); err != nil {
		return Result{}, err
	}
	log := p.Log
	if log == nil {
		log = logger.NopLogger{}
	}
	start := time.Now()

	lists := make([][]domain.Stub, 0, len(p.Sources))
	sourceIDs := make([]string, 0, len(p.Sources))
	for _, src := range p.Sources {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("listing sources: %w", err)
		}
		stubs := src.ListStubs(ctx)
		lists = append(lists, stubs)
		sourceIDs = append(sourceIDs, src.ID())
	}

	stubs := p.Merge(lists, p.Seeds)
	log.InfoObj("stubs merged", "merge_done", map[string]any{
		"sources": len(p.Sources),
		"seeds":   len(p.Seeds),
		"unique":  len(stubs),
	})

	if len(stubs) == 0 {
		log.InfoObj("nothing to do", "pipeline_nothing_to_do", map[string]any{
			"sources": sourceIDs,
		})
		return Result{NothingToDo: true}, nil
	}

	articles := p.Extractor.ExtractAll(ctx, stubs)

	path, rep, err := p.Writer.Write(articles)
	if err != nil {
		return Result{}, fmt.Errorf("write report: %w", err)
	}

	res := Result{
		ReportPath: path,
		Total:      rep.Metadata.TotalArticles,
		Succeeded:  rep.Metadata.SuccessfulScrapes,
		Failed:     rep.Metadata.FailedScrapes,
	}

	if len(p.Publishers) > 0 {
		evt := publishers.NewReportEvent(path, rep.Metadata, sourceIDs)
		// PublishAll logs each failure itself.
		_ = publishers.PublishAll(ctx, p.Publishers, evt, log)
	}

	log.InfoObj("harvest complete", "pipeline_done", map[string]any{
		"report_path":        res.ReportPath,
		"total_articles":     res.Total,
		"successful_scrapes": res.Succeeded,
		"failed_scrapes":     res.Failed,
		"took_ms":            time.Since(start).Milliseconds(),
	})
	return res, nil
}

func (p *Pipeline) validate() error {
	switch {
	case p == nil:
		return errors.New("pipeline is nil")
	case p.Merge == nil:
		return errors.New("pipeline has no merge function")
	case p.Extractor == nil:
		return errors.New("pipeline has no extractor")
	case p.Writer == nil:
		return errors.New("pipeline has no report writer")
	}
	return nil
}
