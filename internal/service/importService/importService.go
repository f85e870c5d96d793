// Package importService orchestrates one portfolio import: acquire a browser
// session, run the institution's extraction strategy, reconcile the raw
// field-sets into records and hand them to the export sink.
package importService

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/KotFed0t/neobroker_portfolio_importer/internal/browser"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/model"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/reconcile"
	"github.com/KotFed0t/neobroker_portfolio_importer/utils"
)

type SessionManager interface {
	Acquire() (browser.Session, error)
}

type Strategy interface {
	Institution() string
	Extract(ctx context.Context, s browser.Session, creds model.Credentials) (model.RawFieldSets, error)
}

type Sink interface {
	Write(ctx context.Context, positions []model.PortfolioPosition) error
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
}

type ImportService struct {
	sessions SessionManager
	storage  CloudStorage
}

func New(sessions SessionManager, storage CloudStorage) *ImportService {
	return &ImportService{
		sessions: sessions,
		storage:  storage,
	}
}

// ImportPortfolio runs one extraction strategy end to end and returns the
// reconciled records. The snapshot date is assigned here, once per call, so
// every record of the run carries the same date. When uploadPath is set the
// written file is also pushed to cloud storage.
func (s *ImportService) ImportPortfolio(ctx context.Context, strategy Strategy, creds model.Credentials, sink Sink, uploadPath string) ([]model.PortfolioPosition, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "ImportService.ImportPortfolio"
	institution := strategy.Institution()

	slog.Debug("ImportPortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("institution", institution))
	defer func() {
		slog.Debug("ImportPortfolio finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("institution", institution))
	}()

	session, err := s.sessions.Acquire()
	if err != nil {
		slog.Error("got error from sessions.Acquire", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, fmt.Errorf("acquire browser session: %w", err)
	}

	raw, err := strategy.Extract(ctx, session, creds)
	if err != nil {
		slog.Error("got error from strategy.Extract", slog.String("rqID", rqID), slog.String("op", op), slog.String("institution", institution), slog.String("err", err.Error()))
		return nil, err
	}
	if raw.Empty() {
		slog.Info("extraction produced no holdings", slog.String("rqID", rqID), slog.String("op", op), slog.String("institution", institution))
	}

	snapshotDate := time.Now().Format(time.DateOnly)
	positions := reconcile.Reconcile(raw, snapshotDate, institution)

	slog.Info("portfolio extracted",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("institution", institution),
		slog.String("date", snapshotDate),
		slog.Int("positions", len(positions)),
	)

	if err := sink.Write(ctx, positions); err != nil {
		slog.Error("got error from sink.Write", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	if uploadPath != "" && s.storage != nil {
		if err := s.upload(ctx, uploadPath); err != nil {
			slog.Error("got error while uploading export", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return nil, err
		}
	}

	return positions, nil
}

func (s *ImportService) upload(ctx context.Context, path string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "ImportService.upload"

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open exported file: %w", err)
	}
	defer f.Close()

	link, err := s.storage.UploadFile(ctx, f, filepath.Base(path))
	if err != nil {
		return err
	}

	slog.Info("export uploaded", slog.String("rqID", rqID), slog.String("op", op), slog.String("link", link))
	return nil
}
