package delugerpc

import (
	"errors"
	"net/http"
	"net/url"

	"golang.org/x/net/proxy"
)

var (
	ErrEmptyProxyURL     = errors.New("proxy URL cannot be empty")
	ErrUnsupportedScheme = errors.New("unsupported proxy scheme")
	ErrInvalidProxyURL   = errors.New("invalid proxy URL")
)

var supportedProxySchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"socks5": true,
}

// ParseProxyURL parses and validates a proxy URL string.
func ParseProxyURL(proxyURL string) (*url.URL, error) {
	if proxyURL == "" {
		return nil, ErrEmptyProxyURL
	}
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, ErrInvalidProxyURL
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, ErrInvalidProxyURL
	}
	if !supportedProxySchemes[parsed.Scheme] {
		return nil, ErrUnsupportedScheme
	}
	return parsed, nil
}

// newProxyTransport returns an http.Transport routing through proxyURL,
// or through the environment's proxy settings when proxyURL is empty.
func newProxyTransport(proxyURL string) (*http.Transport, error) {
	if proxyURL == "" {
		return &http.Transport{Proxy: http.ProxyFromEnvironment}, nil
	}
	parsed, err := ParseProxyURL(proxyURL)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{}
	if parsed.Scheme != "socks5" {
		transport.Proxy = http.ProxyURL(parsed)
		return transport, nil
	}

	var auth *proxy.Auth
	if parsed.User != nil {
		pass, _ := parsed.User.Password()
		auth = &proxy.Auth{
			User:     parsed.User.Username(),
			Password: pass,
		}
	}
	dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
	if err != nil {
		return nil, err
	}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.Dial = dialer.Dial
	}
	return transport, nil
}
