package browser

import "errors"

// Locator strategies, mirroring the WebDriver wire values.
const (
	ByID          = "id"
	ByXPath       = "xpath"
	ByCSSSelector = "css selector"
	ByTagName     = "tag name"
)

// ErrNotFound reports that a queried element is absent from the page. Callers
// use it to tell "optional element missing" apart from a broken session.
var ErrNotFound = errors.New("element not found")

// Session is the browser-automation capability the extraction strategies are
// written against. Implementations wrap a live WebDriver session.
type Session interface {
	Navigate(url string) error
	FindElement(by, value string) (Element, error)
	FindElements(by, value string) ([]Element, error)
	ExecuteScript(script string, args []any) (any, error)
	CurrentURL() (string, error)
	PageSource() (string, error)
	Quit() error
}

type Element interface {
	Text() (string, error)
	Click() error
	SendKeys(keys string) error
	Submit() error
	GetAttribute(name string) (string, error)
	FindElement(by, value string) (Element, error)
	FindElements(by, value string) ([]Element, error)
}
