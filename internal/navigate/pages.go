package navigate

import "strings"

// ZeroScheme prefixes the shell's internal pages.
const ZeroScheme = "zero://"

// NativePage describes an internal page rendered by a native component.
type NativePage struct {
	Src       string
	Title     string
	Icon      string
	Component string
}

// Built-in pages.
var (
	SettingsPage = NativePage{
		Src:       "zero://settings",
		Title:     "Settings",
		Icon:      "fa fa-cog",
		Component: "settings",
	}
	DownloadsPage = NativePage{
		Src:       "zero://downloads",
		Title:     "Downloads",
		Icon:      "fa fa-arrow-circle-down",
		Component: "downloads",
	}
	ExtensionsPage = NativePage{
		Src:       "zero://extensions",
		Title:     "Extension Installation Help",
		Icon:      "fa fa-puzzle-piece",
		Component: "settings",
	}
)

// Called-by values passed to native components.
const (
	CalledByURLBar       = "urlbar"
	CalledByMenu         = "menu"
	CalledByDownloads    = "downloadpopup"
	CalledByExtensions   = "extensions"
	nativeIconURL        = "icon.png"
	calledByPropertyName = "calledBy"
)

// MarketplacePatterns match extension store pages that are never loaded
// from the address bar.
var MarketplacePatterns = []string{"chrome.google.com/webstore", "chromewebstore.google.com"}

// LookupPage resolves a zero:// URL. Sub-paths resolve to their page.
func LookupPage(src string) (NativePage, bool) {
	lower := strings.ToLower(src)
	for _, page := range []NativePage{SettingsPage, DownloadsPage, ExtensionsPage} {
		if strings.HasPrefix(lower, page.Src) {
			page.Src = src
			return page, true
		}
	}
	return NativePage{}, false
}

// IsMarketplace reports whether input points at an extension store.
func IsMarketplace(input string) bool {
	lower := strings.ToLower(input)
	for _, pattern := range MarketplacePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
