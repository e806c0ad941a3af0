package fetcher

import "errors"

var (
	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrInvalidProxyURL is returned when the proxy URL cannot be used.
	ErrInvalidProxyURL = errors.New("invalid proxy URL: must be http, https, socks5 or socks5h with a host")
)
