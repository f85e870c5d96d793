// Package traderepublic extracts portfolio holdings from the Trade Republic
// web app. The instrument list carries all four fields on each list element,
// so a single pass suffices and no join is needed downstream.
package traderepublic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KotFed0t/neobroker_portfolio_importer/config"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/broker"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/browser"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/model"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/poller"
	"github.com/KotFed0t/neobroker_portfolio_importer/utils"
)

const institution = "Trade Republic"

const (
	appURL       = "https://app.traderepublic.com"
	portfolioURL = "https://app.traderepublic.com/portfolio"
)

// Selector contract of the Trade Republic UI.
const (
	selConsentAccept = `.//form[@class="consentCard__form"]//span[@class="buttonBase__title"]`
	selPhoneInput    = "loginPhoneNumber__input"
	selPhoneNext     = `.//span[@class="buttonBase__titleWrapper"]`
	selPinInputs     = `.//input[@type="password"]`
	selLoginError    = `.//div[@class="loginPhoneNumber__error"]`

	selPortfolioTitle = `.//span[@class="portfolio__pageTitle"]`
	selAnnouncement   = `.//div[@class="focusManager__content"]//button`
	selViewDropdown   = `//div[@class="dropdownList"]`
	selViewSinceBuy   = `//div[@class="dropdownList"]//li[@id="investments-sinceBuyabs"]`

	selInstrumentList  = `//ul[@class="portfolioInstrumentList"]`
	selInstrumentItems = `//ul[@class="portfolioInstrumentList"]//li`
	selItemName        = `.//span[@class="instrumentListItem__name"]`
	selItemShares      = `.//span[@class="instrumentListItem__priceRow"]//span`
	selItemValue       = `.//span[@class="instrumentListItem__priceRow"]//span[@class="instrumentListItem__currentPrice"]`
)

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
	op := "traderepublic.Extract"

	slog.Debug("Extract start", slog.String("rqID", rqID), slog.String("op", op))

	if err := s.Navigate(appURL); err != nil {
		return model.RawFieldSets{}, fmt.Errorf("open app: %w", err)
	}

	// Consent card shows up only on a fresh session.
	broker.TryDismiss(s, browser.ByXPath, selConsentAccept)

	if err := st.login(ctx, s, creds); err != nil {
		return model.RawFieldSets{}, err
	}

	if err := s.Navigate(portfolioURL); err != nil {
		return model.RawFieldSets{}, fmt.Errorf("open portfolio view: %w", err)
	}
	if err := poller.Settle(ctx, st.cfg.Waits.SettleDelay); err != nil {
		return model.RawFieldSets{}, err
	}

	if broker.TryDismiss(s, browser.ByXPath, selAnnouncement) {
		if err := poller.Settle(ctx, 2*time.Second); err != nil {
			return model.RawFieldSets{}, err
		}
	}

	st.switchToSinceBuyView(s)

	items, err := st.collectListItems(ctx, s)
	if err != nil {
		return model.RawFieldSets{}, err
	}

	slog.Debug("Extract finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int("items", len(items)))

	return model.RawFieldSets{ListItems: items}, nil
}

func (st *Strategy) login(ctx context.Context, s browser.Session, creds model.Credentials) error {
	timeout := time.Duration(0) // interactive login: wait for the human
	submitted := creds.Present()

	if submitted {
		if err := st.submitCredentials(ctx, s, creds); err != nil {
			return err
		}
		timeout = st.cfg.Waits.LoginTimeout
	}

	pred := func() (bool, error) {
		if submitted {
			if shown, err := broker.Present(s, browser.ByXPath, selLoginError); err != nil {
				return false, err
			} else if shown {
				return false, broker.ErrAuthFailed
			}
		}
		return broker.Present(s, browser.ByXPath, selPortfolioTitle)
	}

	if err := poller.WaitUntil(ctx, pred, timeout, st.cfg.Waits.PollInterval); err != nil {
		if errors.Is(err, poller.ErrTimeout) {
			return fmt.Errorf("portfolio landmark never appeared: %w", err)
		}
		return err
	}
	return nil
}

// submitCredentials fills the phone number and then distributes the PIN over
// the discrete single-digit password inputs, matched positionally.
func (st *Strategy) submitCredentials(ctx context.Context, s browser.Session, creds model.Credentials) error {
	phone, err := s.FindElement(browser.ByID, selPhoneInput)
	if err != nil {
		return fmt.Errorf("locate phone input: %w", err)
	}
	if err := phone.SendKeys(creds.Login); err != nil {
		return fmt.Errorf("fill phone number: %w", err)
	}

	if err := poller.Settle(ctx, time.Second); err != nil {
		return err
	}

	next, err := s.FindElement(browser.ByXPath, selPhoneNext)
	if err != nil {
		return fmt.Errorf("locate next control: %w", err)
	}
	if err := next.Click(); err != nil {
		return fmt.Errorf("advance to pin entry: %w", err)
	}

	inputs, err := s.FindElements(browser.ByXPath, selPinInputs)
	if err != nil {
		return fmt.Errorf("locate pin inputs: %w", err)
	}

	digits := []rune(creds.Secret)
	for i, input := range inputs {
		if i >= len(digits) {
			break
		}
		if err := input.SendKeys(string(digits[i])); err != nil {
			return fmt.Errorf("fill pin digit %d: %w", i+1, err)
		}
	}
	return nil
}

// The "since buy" view exposes share counts on the list items. Best effort:
// the view may already be active or the dropdown gone after a redesign.
func (st *Strategy) switchToSinceBuyView(s browser.Session) {
	if broker.TryDismiss(s, browser.ByXPath, selViewDropdown) {
		broker.TryDismiss(s, browser.ByXPath, selViewSinceBuy)
	}
}

func (st *Strategy) collectListItems(ctx context.Context, s browser.Session) ([]model.RawListItem, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "traderepublic.collectListItems"

	// The list renders asynchronously after the portfolio landmark. Wait for
	// it within the detail bound; a missing list is a failure, not an empty
	// portfolio.
	pred := func() (bool, error) {
		return broker.Present(s, browser.ByXPath, selInstrumentList)
	}
	if err := poller.WaitUntil(ctx, pred, st.cfg.Waits.DetailTimeout, st.cfg.Waits.PollInterval); err != nil {
		return nil, fmt.Errorf("instrument list never appeared: %w", err)
	}

	elements, err := s.FindElements(browser.ByXPath, selInstrumentItems)
	if err != nil {
		return nil, fmt.Errorf("locate instrument list items: %w", err)
	}

	items := make([]model.RawListItem, 0, len(elements))
	for i, el := range elements {
		item, err := scrapeListItem(el)
		if err != nil {
			slog.Warn("instrument list item unreadable, skipping", slog.String("rqID", rqID), slog.String("op", op), slog.Int("item", i), slog.String("err", err.Error()))
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func scrapeListItem(el browser.Element) (model.RawListItem, error) {
	nameEl, err := el.FindElement(browser.ByXPath, selItemName)
	if err != nil {
		return model.RawListItem{}, fmt.Errorf("name element: %w", err)
	}
	name, err := nameEl.Text()
	if err != nil {
		return model.RawListItem{}, fmt.Errorf("name text: %w", err)
	}

	isin, err := el.GetAttribute("id")
	if err != nil {
		return model.RawListItem{}, fmt.Errorf("id attribute: %w", err)
	}

	item := model.RawListItem{Name: strings.TrimSpace(name), ISIN: isin}

	// Shares and value share a price row; either may be missing while the
	// row is still rendering, which leaves the field unset rather than
	// failing the item.
	if sharesEl, err := el.FindElement(browser.ByXPath, selItemShares); err == nil {
		if text, err := sharesEl.Text(); err == nil {
			item.SharesText = strings.TrimSpace(text)
		}
	}
	if valueEl, err := el.FindElement(browser.ByXPath, selItemValue); err == nil {
		if text, err := valueEl.Text(); err == nil {
			item.ValueText = strings.TrimSpace(text)
		}
	}

	return item, nil
}
