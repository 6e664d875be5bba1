package scrape

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/gocolly/colly/v2"
)

// Defaults for a hosted Banner 9 self-service instance. The CatalogURL
// points at the legacy Banner 8 catalog, which is still where the
// human-readable course and section pages live.
const (
	DefaultBaseURL    = "https://nubanner.neu.edu/StudentRegistrationSsb/ssb"
	DefaultCatalogURL = "https://wl11gp.neu.edu/udcprod8"
	DefaultHost       = "neu.edu"
	DefaultCollege    = "Northeastern University"
)

// Client issues every request of a scrape run through colly collectors,
// so the web cache applies uniformly across a run.
type Client struct {
	BaseURL    string
	CatalogURL string
	Host       string
	College    string

	c        *colly.Collector
	meetings *colly.Collector // redirects surface instead of being followed
}

// NewClient wraps a collector for one scrape run. The meeting-times
// endpoint gets a collector of its own because its spontaneous 302s to
// the login page must be seen by the retry logic, not followed.
func NewClient(c *colly.Collector, baseURL string) *Client {
	c.AllowURLRevisit = true
	c.ParseHTTPErrorResponse = true

	m := colly.NewCollector()
	m.AllowURLRevisit = true
	m.ParseHTTPErrorResponse = true
	m.SetRedirectHandler(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	})

	return &Client{
		BaseURL:    baseURL,
		CatalogURL: DefaultCatalogURL,
		Host:       DefaultHost,
		College:    DefaultCollege,
		c:          c,
		meetings:   m,
	}
}

// newSession creates a term-scoped collector whose cookie jar holds the
// session Banner hands out on the search-mode POST. Sessions do not
// share the run collector's backend: each term gets its own jar.
func (cl *Client) newSession() (*colly.Collector, http.CookieJar) {
	c := colly.NewCollector()
	c.AllowURLRevisit = true
	c.ParseHTTPErrorResponse = true
	jar, err := cookiejar.New(nil)
	if err != nil {
		return c, nil
	}
	c.SetCookieJar(jar)
	return c, jar
}

// adoptCookies re-homes the cookies a response set onto the service
// base path. Banner scopes its session cookies to the endpoint that
// issued them, which would keep the jar from attaching them to any of
// the other endpoints.
func (cl *Client) adoptCookies(jar http.CookieJar, resp *colly.Response) {
	if jar == nil || resp == nil || resp.Headers == nil {
		return
	}
	base, err := url.Parse(cl.BaseURL)
	if err != nil {
		return
	}
	cookies := (&http.Response{Header: *resp.Headers}).Cookies()
	for _, cookie := range cookies {
		cookie.Path = base.Path
	}
	if len(cookies) > 0 {
		jar.SetCookies(base, cookies)
	}
}

// response captures the single response produced by visit, whether
// colly reports it as a success or an error.
func response(c *colly.Collector, visit func(*colly.Collector) error) (*colly.Response, error) {
	c = c.Clone()
	var resp *colly.Response
	var failure error
	c.OnResponse(func(r *colly.Response) {
		resp = r
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			resp = r
		}
		failure = err
	})
	if err := visit(c); err != nil && failure == nil {
		failure = err
	}
	if resp != nil {
		return resp, nil
	}
	return nil, failure
}

func get(c *colly.Collector, url string) (*colly.Response, error) {
	return response(c, func(c *colly.Collector) error {
		return c.Visit(url)
	})
}

func post(c *colly.Collector, url string, form map[string]string) (*colly.Response, error) {
	return response(c, func(c *colly.Collector) error {
		return c.Post(url, form)
	})
}

// detail POSTs to a searchResults sub-endpoint with the section
// identity form Banner expects.
func (cl *Client) detail(endpoint, termID, crn string) (*colly.Response, error) {
	return post(cl.c, cl.BaseURL+"/searchResults/"+endpoint, map[string]string{
		"term":                  termID,
		"courseReferenceNumber": crn,
	})
}
