package browser

import (
	"strings"

	"github.com/tebeka/selenium"
)

// seleniumSession adapts a tebeka/selenium WebDriver to the Session interface.
type seleniumSession struct {
	wd selenium.WebDriver
}

func newSeleniumSession(wd selenium.WebDriver) *seleniumSession {
	return &seleniumSession{wd: wd}
}

func (s *seleniumSession) Navigate(url string) error {
	return s.wd.Get(url)
}

func (s *seleniumSession) FindElement(by, value string) (Element, error) {
	el, err := s.wd.FindElement(by, value)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &seleniumElement{el: el}, nil
}

func (s *seleniumSession) FindElements(by, value string) ([]Element, error) {
	els, err := s.wd.FindElements(by, value)
	if err != nil {
		return nil, mapNotFound(err)
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &seleniumElement{el: el})
	}
	return out, nil
}

func (s *seleniumSession) ExecuteScript(script string, args []any) (any, error) {
	return s.wd.ExecuteScript(script, args)
}

func (s *seleniumSession) CurrentURL() (string, error) {
	return s.wd.CurrentURL()
}

func (s *seleniumSession) PageSource() (string, error) {
	return s.wd.PageSource()
}

func (s *seleniumSession) Quit() error {
	return s.wd.Quit()
}

type seleniumElement struct {
	el selenium.WebElement
}

func (e *seleniumElement) Text() (string, error) {
	return e.el.Text()
}

func (e *seleniumElement) Click() error {
	return e.el.Click()
}

func (e *seleniumElement) SendKeys(keys string) error {
	return e.el.SendKeys(keys)
}

func (e *seleniumElement) Submit() error {
	return e.el.Submit()
}

func (e *seleniumElement) GetAttribute(name string) (string, error) {
	return e.el.GetAttribute(name)
}

func (e *seleniumElement) FindElement(by, value string) (Element, error) {
	el, err := e.el.FindElement(by, value)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &seleniumElement{el: el}, nil
}

func (e *seleniumElement) FindElements(by, value string) ([]Element, error) {
	els, err := e.el.FindElements(by, value)
	if err != nil {
		return nil, mapNotFound(err)
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &seleniumElement{el: el})
	}
	return out, nil
}

// The WebDriver protocol reports absence as a "no such element" error without
// an exported sentinel, so match on the message.
func mapNotFound(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "no such element") || strings.Contains(msg, "unable to locate element") {
		return ErrNotFound
	}
	return err
}
