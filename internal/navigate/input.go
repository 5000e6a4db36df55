// Package navigate turns address bar input into tab operations.
package navigate

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/publicsuffix"

	"pkt.systems/tabshell/schema"
)

// Engine is a search engine keyed by its short name.
type Engine struct {
	Name  string
	Query string
}

// DefaultEngine is used when no engine is configured.
const DefaultEngine = "ddg"

var engines = map[string]Engine{
	"ddg":       {Name: "ddg", Query: "https://duckduckgo.com/?q="},
	"google":    {Name: "google", Query: "https://www.google.com/search?q="},
	"bing":      {Name: "bing", Query: "https://www.bing.com/search?q="},
	"brave":     {Name: "brave", Query: "https://search.brave.com/search?q="},
	"startpage": {Name: "startpage", Query: "https://www.startpage.com/do/search?query="},
}

// LookupEngine resolves an engine name. Empty means DefaultEngine.
func LookupEngine(name string) (Engine, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultEngine
	}
	engine, ok := engines[name]
	if !ok {
		return Engine{}, schema.ErrUnknownSearchEngine
	}
	return engine, nil
}

// SearchURL builds the results URL for query.
func (e Engine) SearchURL(query string) string {
	return e.Query + url.QueryEscape(query)
}

// ParseInput classifies address bar input. Input with a scheme is returned
// as is, host-like input gets https:// and anything else becomes a search.
func ParseInput(input string, engine Engine) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if hasScheme(input) {
		return input
	}
	if looksLikeHost(input) {
		return "https://" + input
	}
	return engine.SearchURL(input)
}

// IsSecure reports whether url is shown with the secure indicator.
func IsSecure(url string) bool {
	return strings.HasPrefix(url, "https://") || strings.HasPrefix(url, ZeroScheme)
}

func hasScheme(input string) bool {
	if strings.ContainsAny(input, " \t") {
		return false
	}
	if strings.HasPrefix(strings.ToLower(input), "about:") || strings.HasPrefix(strings.ToLower(input), "data:") {
		return true
	}
	i := strings.Index(input, "://")
	if i <= 0 {
		return false
	}
	for _, r := range input[:i] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

// looksLikeHost reports whether input starts with something that resolves
// as a host: localhost, an IP, a name under a known public suffix, or any
// of those with a port.
func looksLikeHost(input string) bool {
	if strings.ContainsAny(input, " \t") {
		return false
	}
	host := input
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if host == "" {
		return false
	}
	if h, port, err := net.SplitHostPort(host); err == nil {
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return false
		}
		host = h
	}
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "localhost" || net.ParseIP(strings.Trim(host, "[]")) != nil {
		return true
	}
	if !strings.Contains(host, ".") {
		return false
	}
	suffix, icann := publicsuffix.PublicSuffix(host)
	return icann && suffix != host
}
