// Package log builds the slog loggers used by scraper.
//
// Every logger returned by NewLogger masks values that look like
// credentials before they reach the output: request headers such as
// Authorization and Cookie, passwords and tokens, and the userinfo part of
// proxy URLs and database DSNs. Crawls are often run with per-site cookies
// or a postgres DSN, and logs are shared far more freely than config files.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, log.Options{Verbose: true})
//	logger.Debug("fetch", "url", u, "headers", log.Headers(h))
package log
