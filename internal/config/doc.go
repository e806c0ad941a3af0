// Package config provides configuration structures and utilities for scraper.
// It defines the crawl limits, politeness settings, cache location and
// report preferences, and loads the optional .scraper.yaml file.
package config
