// Package schemaupdate compares the local schema version with the published one.
package schemaupdate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/precliniverse/wizard/internal/domain"
	"github.com/precliniverse/wizard/internal/logger"
	"github.com/precliniverse/wizard/internal/schema"
)

// UnknownVersion stands in for a document without a version.
const UnknownVersion = "0.0.0"

// Report is the outcome of an update check. Either UpToDate or Error is set.
type Report struct {
	UpToDate      *bool   `json:"up_to_date,omitempty"`
	LocalVersion  string  `json:"local_version"`
	RemoteVersion string  `json:"remote_version,omitempty"`
	Changelog     *string `json:"changelog,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// Service checks for schema updates.
type Service struct {
	schema    SchemaSource
	fetcher   Fetcher
	remoteURL string
	timeout   time.Duration
}

// New creates a Service. timeout bounds each check; zero means no bound
// beyond the fetcher's own.
func New(source SchemaSource, fetcher Fetcher, remoteURL string, timeout time.Duration) *Service {
	return &Service{schema: source, fetcher: fetcher, remoteURL: remoteURL, timeout: timeout}
}

// Check fetches the remote document and compares versions. Failures are
// reported in the Report, never returned.
func (s *Service) Check(ctx context.Context) Report {
	local := s.schema.Current().Version(UnknownVersion)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	remote, err := s.fetchRemote(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("Schema update check failed",
			zap.String("url", s.remoteURL),
			zap.Error(err),
		)
		return Report{LocalVersion: local, Error: errorMessage(err)}
	}

	remoteVersion := remote.Version(UnknownVersion)
	if remoteVersion == local {
		upToDate := true
		return Report{UpToDate: &upToDate, LocalVersion: local}
	}

	upToDate := false
	changelog := remote.Changelog()
	return Report{
		UpToDate:      &upToDate,
		LocalVersion:  local,
		RemoteVersion: remoteVersion,
		Changelog:     &changelog,
	}
}

func (s *Service) fetchRemote(ctx context.Context) (*schema.Document, error) {
	body, err := s.fetcher.Fetch(ctx, s.remoteURL)
	if err != nil {
		return nil, err
	}
	doc, err := schema.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("remote schema: %w", err)
	}
	return doc, nil
}

func errorMessage(err error) string {
	var statusErr *domain.UpstreamStatusError
	switch {
	case errors.As(err, &statusErr):
		return fmt.Sprintf("GitHub responded with %d", statusErr.StatusCode)
	case errors.Is(err, domain.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return "GitHub timeout"
	default:
		return err.Error()
	}
}
