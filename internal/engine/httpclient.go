package engine

import (
	"net"
	"net/http"
	"net/url"
	"time"
)

// HTTPClientConfig configures the shared client used for metadata probes
// and every chunk fetch. Timeout bounds connecting and receiving
// response headers only, never the body: spec.md §5 is explicit that
// the engine doesn't time out a hanging fetch — the user pauses it.
type HTTPClientConfig struct {
	Timeout       time.Duration
	KeepAlive     time.Duration
	ProxyURL      string
	ProxyUsername string
	ProxyPassword string
	UserAgent     string
	Headers       map[string]string
}

func (c HTTPClientConfig) withDefaults() HTTPClientConfig {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = 60 * time.Second
	}
	if c.Headers == nil {
		c.Headers = map[string]string{}
	}
	return c
}

// httpClient wraps *http.Client with the headers and proxy config every
// request needs, mirroring the teacher's DanzoHTTPClient.
type httpClient struct {
	client *http.Client
	config HTTPClientConfig
}

func newHTTPClient(cfg HTTPClientConfig) *httpClient {
	cfg = cfg.withDefaults()
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: cfg.Timeout, KeepAlive: cfg.KeepAlive}).DialContext,
		ResponseHeaderTimeout: cfg.Timeout,
		IdleConnTimeout:       cfg.KeepAlive,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		DisableCompression:    true,
	}
	if cfg.ProxyURL != "" {
		if proxyURL, err := url.Parse(cfg.ProxyURL); err == nil {
			if cfg.ProxyUsername != "" {
				if cfg.ProxyPassword != "" {
					proxyURL.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
				} else {
					proxyURL.User = url.User(cfg.ProxyUsername)
				}
			}
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &httpClient{
		// no Timeout here: it would bound the whole request including
		// streaming the body, killing any chunk fetch that legitimately
		// runs past it. Cancellation for pause goes through ctx instead.
		client: &http.Client{Transport: transport},
		config: cfg,
	}
}

func (c *httpClient) Do(req *http.Request) (*http.Response, error) {
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	} else {
		req.Header.Set("User-Agent", "fetchd/engine")
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	return c.client.Do(req)
}
