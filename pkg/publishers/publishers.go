package publishers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adda-Baaj/iso-news-harvester/internal/domain"
	"github.com/Adda-Baaj/iso-news-harvester/internal/logger"
)

// EventReportGenerated is emitted once a report file has been written.
const EventReportGenerated = "report.generated"

// Logger is the structured logger publishers report through.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger {
	if log == nil {
		return logger.NopLogger{}
	}
	return log
}

// Event announces a finished run to downstream consumers.
type Event struct {
	EventType         string    `json:"event_type"`
	ReportPath        string    `json:"report_path"`
	GeneratedAt       time.Time `json:"generated_at"`
	TotalArticles     int       `json:"total_articles"`
	SuccessfulScrapes int       `json:"successful_scrapes"`
	FailedScrapes     int       `json:"failed_scrapes"`
	Sources           []string  `json:"sources"`
}

// NewReportEvent describes the report written to path.
func NewReportEvent(path string, meta domain.ReportMetadata, sources []string) Event {
	if sources == nil {
		sources = []string{}
	}
	return Event{
		EventType:         EventReportGenerated,
		ReportPath:        path,
		GeneratedAt:       meta.GeneratedAt,
		TotalArticles:     meta.TotalArticles,
		SuccessfulScrapes: meta.SuccessfulScrapes,
		FailedScrapes:     meta.FailedScrapes,
		Sources:           sources,
	}
}

// Publisher delivers events to one sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Closer is implemented by publishers holding connections.
type Closer interface {
	Close() error
}

// PublishAll sends evt to every publisher. Failures are logged and joined; a
// failing publisher does not stop the others.
func PublishAll(ctx context.Context, pubs []Publisher, evt Event, log Logger) error {
	log = ensureLogger(log)

	var errs []error
	for _, p := range pubs {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil {
			log.WarnObj("publisher failed", "publisher_error", map[string]any{
				"publisher_id":   p.ID(),
				"publisher_type": p.Type(),
				"error":          err.Error(),
			})
			errs = append(errs, fmt.Errorf("publisher %s: %w", p.ID(), err))
			continue
		}
		log.InfoObj("event published", "publisher_delivered", map[string]any{
			"publisher_id": p.ID(),
			"event_type":   evt.EventType,
		})
	}
	return errors.Join(errs...)
}

// CloseAll releases publisher resources.
func CloseAll(pubs []Publisher) error {
	var errs []error
	for _, p := range pubs {
		if c, ok := p.(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close publisher %s: %w", p.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}
