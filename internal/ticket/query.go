package ticket

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mini-rodalies-3d/ticketwatch/internal/provider"
)

// ErrLoginRequired is returned when the provider answers with its login page.
// No other endpoint can succeed without credentials, so the cycle ends early.
var ErrLoginRequired = errors.New("provider requires login")

// loginMarkers appear on the provider's login page
var loginMarkers = [][]byte{[]byte("请登录"), []byte("登录名")}

// leftTicketURLRegex extracts the data endpoint the query page would call,
// e.g. "var CLeftTicketUrl = 'leftTicket/queryG';" -> "leftTicket/queryG"
var leftTicketURLRegex = regexp.MustCompile(`var\s+CLeftTicketUrl\s*=\s*'([^']+)'`)

// StationResolver maps a station display name to its provider code
type StationResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// Fetcher retrieves a provider URL
type Fetcher interface {
	Get(ctx context.Context, url string, headers http.Header) ([]byte, error)
}

// Options configures a Querier
type Options struct {
	BaseURL string
	// Endpoints are the ticket API paths tried in order by the direct strategy
	Endpoints      []string
	FirstJitter    provider.Jitter
	FollowUpJitter provider.Jitter
}

// route is a QuerySpec with both station codes resolved
type route struct {
	spec     QuerySpec
	fromCode string
	toCode   string
}

type strategy struct {
	name string
	run  func(ctx context.Context, rt route) ([]Record, error)
}

// Querier performs single ticket queries against the provider
type Querier struct {
	fetcher        Fetcher
	stations       StationResolver
	baseURL        string
	endpoints      []string
	firstJitter    provider.Jitter
	followUpJitter provider.Jitter
	strategies     []strategy
}

// NewQuerier creates a new ticket querier
func NewQuerier(fetcher Fetcher, stations StationResolver, opts Options) *Querier {
	q := &Querier{
		fetcher:        fetcher,
		stations:       stations,
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		endpoints:      opts.Endpoints,
		firstJitter:    opts.FirstJitter,
		followUpJitter: opts.FollowUpJitter,
	}
	// The page-derived endpoint tracks the provider's current API path, so it goes first
	q.strategies = []strategy{
		{name: "page", run: q.queryFromPage},
		{name: "api", run: q.queryFromAPI},
	}
	return q
}

// Query performs one query attempt and returns the matching records.
// Failures are logged and yield an empty result.
func (q *Querier) Query(ctx context.Context, spec QuerySpec) []Record {
	rt, err := q.resolveRoute(ctx, spec)
	if err != nil {
		log.Printf("Query: %v", err)
		return nil
	}

	for _, s := range q.strategies {
		records, err := s.run(ctx, rt)
		switch {
		case errors.Is(err, ErrLoginRequired):
			log.Printf("Query: %s strategy hit the login page, skipping this cycle", s.name)
			return nil
		case ctx.Err() != nil:
			return nil
		case err != nil:
			log.Printf("Query: %s strategy failed: %v", s.name, err)
		case len(records) == 0:
			log.Printf("Query: %s strategy found no matching trains", s.name)
		default:
			return records
		}
	}

	return nil
}

func (q *Querier) resolveRoute(ctx context.Context, spec QuerySpec) (route, error) {
	fromCode, err := q.stations.Resolve(ctx, spec.FromStation)
	if err != nil {
		return route{}, fmt.Errorf("cannot resolve origin station: %w", err)
	}
	toCode, err := q.stations.Resolve(ctx, spec.ToStation)
	if err != nil {
		return route{}, fmt.Errorf("cannot resolve destination station: %w", err)
	}
	return route{spec: spec, fromCode: fromCode, toCode: toCode}, nil
}

// queryFromPage loads the human-facing query page, extracts the data endpoint
// it embeds, and calls that endpoint.
func (q *Querier) queryFromPage(ctx context.Context, rt route) ([]Record, error) {
	pageURL := q.pageURL(rt)

	if err := q.firstJitter.Wait(ctx); err != nil {
		return nil, err
	}
	log.Printf("Query: loading query page %s", pageURL)

	page, err := q.fetcher.Get(ctx, pageURL, provider.DocumentHeaders(q.baseURL+"/otn/index/init"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch query page: %w", err)
	}
	if requiresLogin(page) {
		return nil, ErrLoginRequired
	}

	path, err := extractLeftTicketPath(page)
	if err != nil {
		return nil, err
	}

	if err := q.followUpJitter.Wait(ctx); err != nil {
		return nil, err
	}
	apiURL := q.apiURL(path, rt)
	log.Printf("Query: page points at %s", path)

	body, err := q.fetcher.Get(ctx, apiURL, provider.XHRHeaders(pageURL))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}

	raws, err := ParseResponse(body)
	if err != nil {
		if requiresLogin(body) {
			return nil, ErrLoginRequired
		}
		return nil, err
	}
	return FilterTrains(ParseRecords(raws), rt.spec), nil
}

// queryFromAPI tries each known endpoint until one returns a well-formed response
func (q *Querier) queryFromAPI(ctx context.Context, rt route) ([]Record, error) {
	if len(q.endpoints) == 0 {
		return nil, errors.New("no API endpoints configured")
	}
	if err := q.firstJitter.Wait(ctx); err != nil {
		return nil, err
	}

	referer := q.baseURL + "/otn/leftTicket/init"
	var lastErr error
	for _, endpoint := range q.endpoints {
		if err := q.followUpJitter.Wait(ctx); err != nil {
			return nil, err
		}
		log.Printf("Query: trying API endpoint %s", endpoint)

		body, err := q.fetcher.Get(ctx, q.apiURL(endpoint, rt), provider.XHRHeaders(referer))
		if err != nil {
			log.Printf("Query: endpoint %s failed: %v", endpoint, err)
			lastErr = err
			continue
		}
		if len(bytes.TrimSpace(body)) == 0 {
			log.Printf("Query: endpoint %s returned an empty body", endpoint)
			lastErr = fmt.Errorf("%w: empty body", ErrMalformedResponse)
			continue
		}

		raws, err := ParseResponse(body)
		if err != nil {
			if requiresLogin(body) {
				return nil, ErrLoginRequired
			}
			if looksLikeHTML(body) {
				log.Printf("Query: endpoint %s returned an HTML page", endpoint)
			}
			log.Printf("Query: endpoint %s: %v", endpoint, err)
			lastErr = err
			continue
		}

		return FilterTrains(ParseRecords(raws), rt.spec), nil
	}

	return nil, fmt.Errorf("all API endpoints failed: %w", lastErr)
}

func (q *Querier) pageURL(rt route) string {
	params := url.Values{}
	params.Set("linktypeid", "dc")
	params.Set("fs", rt.spec.FromStation+","+rt.fromCode)
	params.Set("ts", rt.spec.ToStation+","+rt.toCode)
	params.Set("date", rt.spec.Date)
	params.Set("flag", "N,N,Y")
	return q.baseURL + "/otn/leftTicket/init?" + params.Encode()
}

// apiURL builds a ticket API URL. The provider expects the parameters in this
// exact order, so they are not passed through url.Values.
func (q *Querier) apiURL(path string, rt route) string {
	return fmt.Sprintf("%s/otn/%s?leftTicketDTO.train_date=%s&leftTicketDTO.from_station=%s&leftTicketDTO.to_station=%s&purpose_codes=ADULT",
		q.baseURL,
		strings.TrimLeft(path, "/"),
		url.QueryEscape(rt.spec.Date),
		url.QueryEscape(rt.fromCode),
		url.QueryEscape(rt.toCode),
	)
}

// extractLeftTicketPath finds the CLeftTicketUrl assignment in the page's scripts
func extractLeftTicketPath(page []byte) (string, error) {
	var path string
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page)); err == nil {
		doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
			if m := leftTicketURLRegex.FindStringSubmatch(s.Text()); m != nil {
				path = m[1]
				return false
			}
			return true
		})
	}

	// Some page variants inline the assignment outside a script element
	if path == "" {
		if m := leftTicketURLRegex.FindSubmatch(page); m != nil {
			path = string(m[1])
		}
	}

	if path == "" {
		return "", errors.New("query page has no CLeftTicketUrl")
	}
	return path, nil
}

func requiresLogin(body []byte) bool {
	for _, marker := range loginMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

func looksLikeHTML(body []byte) bool {
	return bytes.Contains(bytes.ToLower(body), []byte("<html"))
}
