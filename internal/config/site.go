package config

import "strings"

// SiteConfig holds request settings for a single host.
type SiteConfig struct {
	// Cookie is sent as the Cookie header to this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent to this host.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// SiteFor returns the settings for host merged over the "*" entry.
// Host matching is case-insensitive.
func (c *Config) SiteFor(host string) SiteConfig {
	return mergeSite(c.Sites, host)
}

func mergeSite(sites map[string]SiteConfig, host string) SiteConfig {
	result := SiteConfig{}
	if def, ok := sites["*"]; ok {
		result.Cookie = def.Cookie
		result.Headers = copyHeaders(def.Headers)
	}

	site, ok := sites[strings.ToLower(host)]
	if !ok {
		return result
	}
	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	return result
}

func copyHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
