package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Adda-Baaj/iso-news-harvester/internal/config"
	"github.com/Adda-Baaj/iso-news-harvester/internal/crawler"
	"github.com/Adda-Baaj/iso-news-harvester/internal/domain"
	"github.com/Adda-Baaj/iso-news-harvester/internal/logger"
	"github.com/Adda-Baaj/iso-news-harvester/internal/pipeline"
	"github.com/Adda-Baaj/iso-news-harvester/internal/report"
	"github.com/Adda-Baaj/iso-news-harvester/pkg/dates"
	"github.com/Adda-Baaj/iso-news-harvester/pkg/httpclient"
	"github.com/Adda-Baaj/iso-news-harvester/pkg/providers"
	"github.com/Adda-Baaj/iso-news-harvester/pkg/publishers"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "harvester: %v\n", err)
		return 1
	}

	cfg, err := config.Load(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "harvester: %v\n", err)
		return 2
	}

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "harvester: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := harvest(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("harvest failed", "harvest_error", map[string]any{"error": err.Error()})
		return 1
	}
	if res.NothingToDo {
		return 0
	}

	fmt.Fprintf(os.Stdout, "report: %s (%d articles, %d ok, %d failed)\n", res.ReportPath, res.Total, res.Succeeded, res.Failed)
	return 0
}

// harvest wires the components described by cfg and runs one pipeline.
func harvest(ctx context.Context, cfg *config.Config, log logger.Logger) (pipeline.Result, error) {
	listingClient := httpclient.New(httpclient.Options{
		Timeout:   cfg.RequestTimeout,
		UserAgent: cfg.UserAgent,
	})
	articleClient := httpclient.New(httpclient.Options{
		Timeout:            cfg.RequestTimeout,
		UserAgent:          cfg.UserAgent,
		InsecureSkipVerify: cfg.InsecureArticleTLS,
	})

	providerCfgs := providers.DefaultProviders()
	if cfg.ProvidersFile != "" {
		loaded, err := providers.LoadProviders(cfg.ProvidersFile)
		if err != nil {
			return pipeline.Result{}, err
		}
		providerCfgs = loaded
	}

	reg := providers.DefaultFetcherRegistry(listingClient, dates.NewNormalizer(log), log)
	sources, err := providers.NewSources(reg, providerCfgs, log)
	if err != nil {
		return pipeline.Result{}, err
	}
	stubSources := make([]pipeline.StubSource, 0, len(sources))
	for _, src := range sources {
		stubSources = append(stubSources, src)
	}

	var seeds []domain.Stub
	if cfg.SeedFile != "" {
		if seeds, err = providers.LoadSeeds(cfg.SeedFile); err != nil {
			return pipeline.Result{}, err
		}
	}

	pubs, err := buildPublishers(ctx, cfg.PublishersFile, log)
	if err != nil {
		return pipeline.Result{}, err
	}
	defer func() {
		if cerr := publishers.CloseAll(pubs); cerr != nil {
			log.WarnObj("closing publishers failed", "publisher_close_error", map[string]any{"error": cerr.Error()})
		}
	}()

	log.InfoObj("harvest starting", "harvest_start", map[string]any{
		"sources":    len(stubSources),
		"seeds":      len(seeds),
		"publishers": len(pubs),
		"output_dir": cfg.OutputDir,
	})

	p := &pipeline.Pipeline{
		Sources: stubSources,
		Seeds:   seeds,
		Merge:   crawler.Merge,
		Extractor: crawler.NewScraper(articleClient, log, crawler.Options{
			ContentCap: cfg.ContentCap,
			SummaryCap: cfg.SummaryCap,
			Delay:      cfg.RequestDelay,
		}),
		Writer: report.NewWriter(report.Options{
			Dir:    cfg.OutputDir,
			Prefix: cfg.FilePrefix,
		}, log),
		Publishers: pubs,
		Log:        log,
	}
	return p.Run(ctx)
}

func buildPublishers(ctx context.Context, path string, log logger.Logger) ([]publishers.Publisher, error) {
	if path == "" {
		return nil, nil
	}
	reg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	return publishers.BuildAll(ctx, publishers.DefaultRegistry(), reg.Enabled(), log)
}
