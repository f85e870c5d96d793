package browser

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"

	"github.com/KotFed0t/neobroker_portfolio_importer/config"
)

const statusProbeTimeout = 3 * time.Second

// Manager owns the browser-session lifecycle. Acquire hands out the already
// running session while it is still live and launches a fresh one otherwise.
// Release is idempotent and safe to call when nothing was ever launched.
type Manager struct {
	cfg     *config.Config
	client  *resty.Client
	service *selenium.Service
	session *seleniumSession
	baseURL string
}

func NewManager(cfg *config.Config) *Manager {
	client := resty.New().SetTimeout(statusProbeTimeout)
	return &Manager{cfg: cfg, client: client}
}

func (m *Manager) Acquire() (Session, error) {
	op := "Manager.Acquire"

	if m.session != nil {
		if m.alive() {
			slog.Debug("reusing live browser session", slog.String("op", op))
			return m.session, nil
		}
		slog.Warn("existing browser session is dead, launching a new one", slog.String("op", op))
		m.Release()
	}

	if m.cfg.Selenium.Browser != "chrome" {
		return nil, fmt.Errorf("unsupported browser %q: only chrome is wired up", m.cfg.Selenium.Browser)
	}

	service, err := selenium.NewChromeDriverService(m.cfg.Selenium.DriverPath, m.cfg.Selenium.DriverPort)
	if err != nil {
		return nil, fmt.Errorf("launch chromedriver: %w", err)
	}

	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(m.chromeCapabilities())

	m.baseURL = fmt.Sprintf("http://localhost:%d/wd/hub", m.cfg.Selenium.DriverPort)

	wd, err := selenium.NewRemote(caps, m.baseURL)
	if err != nil {
		if stopErr := service.Stop(); stopErr != nil {
			slog.Error("stop chromedriver after failed remote", slog.String("op", op), slog.String("err", stopErr.Error()))
		}
		return nil, fmt.Errorf("open webdriver session: %w", err)
	}

	m.service = service
	m.session = newSeleniumSession(wd)

	slog.Info("browser session created", slog.String("op", op), slog.Bool("headless", m.cfg.Selenium.Headless))

	return m.session, nil
}

func (m *Manager) Release() {
	op := "Manager.Release"

	if m.session != nil {
		if err := m.session.Quit(); err != nil {
			slog.Error("quit browser session", slog.String("op", op), slog.String("err", err.Error()))
		}
		m.session = nil
	}

	if m.service != nil {
		if err := m.service.Stop(); err != nil {
			slog.Error("stop chromedriver", slog.String("op", op), slog.String("err", err.Error()))
		}
		m.service = nil
	}
}

// alive probes the driver endpoint and the session itself. Both must answer:
// the driver process can outlive a crashed browser and vice versa.
func (m *Manager) alive() bool {
	resp, err := m.client.R().Get(m.baseURL + "/status")
	if err != nil || !resp.IsSuccess() {
		return false
	}

	if _, err := m.session.CurrentURL(); err != nil {
		return false
	}
	return true
}

func (m *Manager) chromeCapabilities() chrome.Capabilities {
	prefs := map[string]any{
		"intl.accept_languages":        m.cfg.Selenium.Locale,
		"download.prompt_for_download": false,
	}
	if m.cfg.Selenium.DisableJS {
		prefs["profile.managed_default_content_settings.javascript"] = 2
	}

	args := []string{
		"--disable-blink-features=AutomationControlled",
		"--no-first-run",
	}
	if m.cfg.Selenium.Headless {
		args = append(args, "--headless=new")
	}

	return chrome.Capabilities{
		Path:            m.cfg.Selenium.BrowserPath,
		Args:            args,
		ExcludeSwitches: []string{"enable-automation"},
		Prefs:           prefs,
	}
}
