// Package scalablecapital extracts portfolio holdings from the Scalable
// Capital broker UI. Names and values come from the rendered portfolio
// table, identifiers from the deep-link anchors, and share counts from a
// secondary visit to each instrument's detail page.
package scalablecapital

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/KotFed0t/neobroker_portfolio_importer/config"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/broker"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/browser"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/model"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/poller"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/reconcile"
	"github.com/KotFed0t/neobroker_portfolio_importer/utils"
)

const institution = "Scalable Capital"

const (
	loginURL        = "https://de.scalable.capital/en/secure-login"
	brokerURL       = "https://de.scalable.capital/broker/"
	detailURLFormat = "https://de.scalable.capital/broker/security?isin=%s&portfolioId=%s"

	cockpitURLFragment   = "cockpit"
	migrationURLFragment = "auth/custodian-switch/successful-migration"

	emptyPortfolioMarker = "Popular savings plans"
)

// Selector contract of the Scalable Capital UI. Everything below is owned by
// this strategy and expected to break whenever the UI changes.
const (
	selUsername     = "username"
	selPassword     = "password"
	selSubmit       = `.//*[@type="submit"]`
	selLoginError   = `[data-testid="login-error"]`
	selMigrationCTA = `[data-testid="custodian_switch_successful_migration_cta"]`

	selVenuesClosed   = `.//button[contains(text(), "Close")]`
	selCloseModal     = `button[data-testid="close-modal-button"]`
	selPortfolioGroup = `//h2[text()='Portfolio']/..`

	selPortfolioItems = `//div[@aria-label="Portfolio"]//li`
	selItemName       = `div[data-testid="text"]`
	selSharesLandmark = `//div[contains(text(), "Shares")]//..//span`

	// Scoped to the Portfolio grouping: the page also renders a Watchlist
	// section whose rows must not leak into the export.
	selPortfolioTable = `div[aria-label="Portfolio"] table tbody tr`
)

// The consent widget lives in a shadow root, so plain element lookup cannot
// reach the deny-all button.
const cookieDenyScript = `
	const root = document.querySelector("#usercentrics-root");
	if (!root || !root.shadowRoot) { return false; }
	const btn = root.shadowRoot.querySelector("button[data-testid='uc-deny-all-button']");
	if (!btn) { return false; }
	btn.click();
	return true;`

type Strategy struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Strategy {
	return &Strategy{cfg: cfg}
}

func (st *Strategy) Institution() string {
	return institution
}

func (st *Strategy) Extract(ctx context.Context, s browser.Session, creds model.Credentials) (model.RawFieldSets, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "scalablecapital.Extract"

	slog.Debug("Extract start", slog.String("rqID", rqID), slog.String("op", op))

	if err := s.Navigate(loginURL); err != nil {
		return model.RawFieldSets{}, fmt.Errorf("open login page: %w", err)
	}

	if err := st.login(ctx, s, creds); err != nil {
		return model.RawFieldSets{}, err
	}

	// The consent widget renders late; give it a moment before probing.
	if err := poller.Settle(ctx, 3*time.Second); err != nil {
		return model.RawFieldSets{}, err
	}
	if broker.TryDismissScript(s, cookieDenyScript) {
		slog.Debug("cookie consent rejected", slog.String("rqID", rqID), slog.String("op", op))
	}

	if err := s.Navigate(brokerURL); err != nil {
		return model.RawFieldSets{}, fmt.Errorf("open broker view: %w", err)
	}
	if err := poller.Settle(ctx, st.cfg.Waits.SettleDelay); err != nil {
		return model.RawFieldSets{}, err
	}

	broker.TryDismiss(s, browser.ByXPath, selVenuesClosed)
	broker.TryDismiss(s, browser.ByCSSSelector, selCloseModal)
	broker.TryDismiss(s, browser.ByXPath, selVenuesClosed)

	currentURL, err := s.CurrentURL()
	if err != nil {
		return model.RawFieldSets{}, fmt.Errorf("read broker view url: %w", err)
	}
	portfolioID := reconcile.PortfolioIDFromURL(currentURL)

	group, err := st.locatePortfolioGrouping(ctx, s)
	if err != nil {
		return model.RawFieldSets{}, err
	}
	groupText, err := group.Text()
	if err != nil {
		return model.RawFieldSets{}, fmt.Errorf("read portfolio grouping: %w", err)
	}
	if strings.Contains(groupText, emptyPortfolioMarker) {
		slog.Info("portfolio grouping is empty, nothing to extract", slog.String("rqID", rqID), slog.String("op", op))
		return model.RawFieldSets{}, nil
	}

	source, err := s.PageSource()
	if err != nil {
		return model.RawFieldSets{}, fmt.Errorf("read page source: %w", err)
	}
	rows, err := ParsePortfolioTable(source)
	if err != nil {
		return model.RawFieldSets{}, fmt.Errorf("parse portfolio table: %w", err)
	}

	anchors, err := st.collectAnchors(ctx, s)
	if err != nil {
		return model.RawFieldSets{}, err
	}

	shares := st.collectShares(ctx, s, anchors, portfolioID)

	slog.Debug("Extract finished",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.Int("rows", len(rows)),
		slog.Int("anchors", len(anchors)),
		slog.Int("shares", len(shares)),
	)

	return model.RawFieldSets{TableRows: rows, Anchors: anchors, Shares: shares}, nil
}

func (st *Strategy) login(ctx context.Context, s browser.Session, creds model.Credentials) error {
	timeout := time.Duration(0) // interactive login: the human may take arbitrarily long
	submitted := creds.Present()

	if submitted {
		if err := st.submitCredentials(ctx, s, creds); err != nil {
			return err
		}
		timeout = st.cfg.Waits.LoginTimeout
	}

	pred := func() (bool, error) {
		url, err := s.CurrentURL()
		if err != nil {
			return false, err
		}

		if strings.Contains(url, migrationURLFragment) {
			broker.TryDismiss(s, browser.ByCSSSelector, selMigrationCTA)
		}

		// Only a programmatic login treats the error banner as fatal; a
		// human at the keyboard can retype and continue.
		if submitted {
			if shown, err := broker.Present(s, browser.ByCSSSelector, selLoginError); err != nil {
				return false, err
			} else if shown {
				return false, broker.ErrAuthFailed
			}
		}

		return strings.Contains(url, cockpitURLFragment), nil
	}

	if err := poller.WaitUntil(ctx, pred, timeout, st.cfg.Waits.PollInterval); err != nil {
		if errors.Is(err, poller.ErrTimeout) {
			return fmt.Errorf("authenticated landmark never appeared: %w", err)
		}
		return err
	}
	return nil
}

func (st *Strategy) submitCredentials(ctx context.Context, s browser.Session, creds model.Credentials) error {
	username, err := s.FindElement(browser.ByID, selUsername)
	if err != nil {
		return fmt.Errorf("locate username field: %w", err)
	}
	if err := username.SendKeys(creds.Login); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}

	password, err := s.FindElement(browser.ByID, selPassword)
	if err != nil {
		return fmt.Errorf("locate password field: %w", err)
	}
	if err := password.SendKeys(creds.Secret); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}

	if err := poller.Settle(ctx, 2*time.Second); err != nil {
		return err
	}

	submit, err := s.FindElement(browser.ByXPath, selSubmit)
	if err != nil {
		return fmt.Errorf("locate submit control: %w", err)
	}
	if err := submit.Submit(); err != nil {
		return fmt.Errorf("submit login form: %w", err)
	}
	return nil
}

// locatePortfolioGrouping waits for the portfolio grouping landmark before
// looking it up. The grouping is a mandatory extraction element: its absence
// after the bounded wait is a reported failure, not an empty result.
func (st *Strategy) locatePortfolioGrouping(ctx context.Context, s browser.Session) (browser.Element, error) {
	pred := func() (bool, error) {
		return broker.Present(s, browser.ByXPath, selPortfolioGroup)
	}
	if err := poller.WaitUntil(ctx, pred, st.cfg.Waits.DetailTimeout, st.cfg.Waits.PollInterval); err != nil {
		return nil, fmt.Errorf("portfolio grouping never appeared: %w", err)
	}
	return s.FindElement(browser.ByXPath, selPortfolioGroup)
}

func (st *Strategy) collectAnchors(ctx context.Context, s browser.Session) ([]model.RawAnchor, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "scalablecapital.collectAnchors"

	items, err := s.FindElements(browser.ByXPath, selPortfolioItems)
	if err != nil {
		return nil, fmt.Errorf("locate portfolio items: %w", err)
	}

	anchors := make([]model.RawAnchor, 0, len(items))
	for i, item := range items {
		nameEl, err := item.FindElement(browser.ByCSSSelector, selItemName)
		if err != nil {
			slog.Warn("portfolio item without name, skipping", slog.String("rqID", rqID), slog.String("op", op), slog.Int("item", i))
			continue
		}
		name, err := nameEl.Text()
		if err != nil {
			slog.Warn("portfolio item name unreadable, skipping", slog.String("rqID", rqID), slog.String("op", op), slog.Int("item", i))
			continue
		}

		link, err := item.FindElement(browser.ByTagName, "a")
		if err != nil {
			slog.Warn("portfolio item without deep link, skipping", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", name))
			continue
		}
		href, err := link.GetAttribute("href")
		if err != nil {
			slog.Warn("portfolio item href unreadable, skipping", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", name))
			continue
		}

		anchors = append(anchors, model.RawAnchor{Name: name, Ref: href})
	}
	return anchors, nil
}

// collectShares visits each instrument's detail page. This is the N+1
// navigation cost of the whole pipeline: one page load per holding. A
// bounded-wait expiry skips that instrument only.
func (st *Strategy) collectShares(ctx context.Context, s browser.Session, anchors []model.RawAnchor, portfolioID string) []model.RawShares {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "scalablecapital.collectShares"

	shares := make([]model.RawShares, 0, len(anchors))
	for _, anchor := range anchors {
		isin := reconcile.ExtractISIN(anchor.Ref)
		if isin == "" {
			continue
		}

		if err := s.Navigate(BuildDetailURL(isin, portfolioID)); err != nil {
			slog.Warn("detail page navigation failed, skipping instrument", slog.String("rqID", rqID), slog.String("op", op), slog.String("isin", isin), slog.String("err", err.Error()))
			continue
		}

		pred := func() (bool, error) {
			return broker.Present(s, browser.ByXPath, selSharesLandmark)
		}
		if err := poller.WaitUntil(ctx, pred, st.cfg.Waits.DetailTimeout, st.cfg.Waits.PollInterval); err != nil {
			slog.Warn("shares landmark never appeared, skipping instrument", slog.String("rqID", rqID), slog.String("op", op), slog.String("isin", isin), slog.String("err", err.Error()))
			continue
		}

		el, err := s.FindElement(browser.ByXPath, selSharesLandmark)
		if err != nil {
			slog.Warn("shares element vanished, skipping instrument", slog.String("rqID", rqID), slog.String("op", op), slog.String("isin", isin))
			continue
		}
		text, err := el.Text()
		if err != nil {
			slog.Warn("shares text unreadable, skipping instrument", slog.String("rqID", rqID), slog.String("op", op), slog.String("isin", isin))
			continue
		}

		shares = append(shares, model.RawShares{ISIN: isin, SharesText: text})
	}
	return shares
}

func BuildDetailURL(isin, portfolioID string) string {
	return fmt.Sprintf(detailURLFormat, isin, portfolioID)
}

// ParsePortfolioTable extracts the rendered holdings table from the page
// source. Each row's text is the compound "<name><currency value>" string
// the reconciler splits later.
func ParsePortfolioTable(source string) ([]model.RawTableRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return nil, err
	}

	var rows []model.RawTableRow
	doc.Find(selPortfolioTable).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		rows = append(rows, model.RawTableRow{Compound: text})
	})
	return rows, nil
}
