// Package broker defines the per-institution extraction strategies. Each
// strategy owns the selector contract of one brokerage web UI and drives a
// browser session through login, interstitial dismissal and field scraping,
// producing raw field-sets for reconciliation.
package broker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/KotFed0t/neobroker_portfolio_importer/internal/browser"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/model"
)

// ErrAuthFailed reports that the broker showed an explicit invalid-login
// message. It is fatal and distinct from a landmark simply not appearing yet.
var ErrAuthFailed = errors.New("authentication failed")

type Strategy interface {
	Institution() string
	Extract(ctx context.Context, s browser.Session, creds model.Credentials) (model.RawFieldSets, error)
}

// TryDismiss clicks an optional control if it is present. Absence is the
// expected case for interstitials that only sometimes appear (consent
// banners, market-status notices, feature announcements) and is not an
// error.
func TryDismiss(s browser.Session, by, selector string) bool {
	el, err := s.FindElement(by, selector)
	if err != nil {
		if !errors.Is(err, browser.ErrNotFound) {
			slog.Debug("optional element lookup failed", slog.String("op", "broker.TryDismiss"), slog.String("selector", selector), slog.String("err", err.Error()))
		}
		return false
	}
	if err := el.Click(); err != nil {
		slog.Debug("optional element click failed", slog.String("op", "broker.TryDismiss"), slog.String("selector", selector), slog.String("err", err.Error()))
		return false
	}
	return true
}

// TryDismissScript runs a script expected to click a control reachable only
// through script (e.g. inside a shadow root) and to return true when it did.
func TryDismissScript(s browser.Session, script string) bool {
	res, err := s.ExecuteScript(script, nil)
	if err != nil {
		slog.Debug("optional dismissal script failed", slog.String("op", "broker.TryDismissScript"), slog.String("err", err.Error()))
		return false
	}
	clicked, ok := res.(bool)
	return ok && clicked
}

// Present reports whether an element exists, mapping absence to false and
// keeping real session failures as errors.
func Present(s browser.Session, by, selector string) (bool, error) {
	_, err := s.FindElement(by, selector)
	if err != nil {
		if errors.Is(err, browser.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
