// internal/retrieval/html.go
package retrieval

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	commonhttp "food-recommender/internal/common/http"
	"food-recommender/internal/common/logger"
	"food-recommender/internal/models"
)

const DefaultMaxItems = 10

// Fetcher returns the HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher fetches pages with a plain GET.
type HTTPFetcher struct {
	client *commonhttp.Client
}

func NewHTTPFetcher(client *commonhttp.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	body, err := f.client.Get(ctx, pageURL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Selectors are the CSS selectors that locate listing fields inside one item node.
// Empty field selectors leave the field at its zero value.
type Selectors struct {
	Item        string
	Name        string
	Source      string
	Price       string
	Rating      string
	Reviews     string
	Distance    string
	Cuisine     string
	Tags        string
	Description string
	Image       string
	Link        string
}

type HTMLConfig struct {
	Platform  string
	SearchURL string // may contain {query} and {location}
	Selectors Selectors
	MaxItems  int
	// RequestsPerSecond <= 0 disables throttling.
	RequestsPerSecond float64
	Burst             int
}

// HTMLProvider scrapes a search results page. Items that fail to parse are skipped.
type HTMLProvider struct {
	config  HTMLConfig
	fetcher Fetcher
	limiter *rate.Limiter
	logger  logger.Logger
}

func NewHTMLProvider(cfg HTMLConfig, fetcher Fetcher, log logger.Logger) (*HTMLProvider, error) {
	if cfg.SearchURL == "" {
		return nil, fmt.Errorf("platform %s: search url is required", cfg.Platform)
	}
	if cfg.Selectors.Item == "" || cfg.Selectors.Name == "" {
		return nil, fmt.Errorf("platform %s: item and name selectors are required", cfg.Platform)
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxItems
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &HTMLProvider{
		config:  cfg,
		fetcher: fetcher,
		limiter: limiter,
		logger:  log.WithFields(map[string]interface{}{"platform": cfg.Platform, "provider": "html"}),
	}, nil
}

func (p *HTMLProvider) Search(ctx context.Context, query, location string) ([]models.Listing, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	pageURL := expandURL(p.config.SearchURL, query, location)
	page, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", p.config.Platform, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse %s page: %w", p.config.Platform, err)
	}

	base, _ := url.Parse(pageURL)
	listings := make([]models.Listing, 0, p.config.MaxItems)
	skipped := 0

	doc.Find(p.config.Selectors.Item).EachWithBreak(func(i int, item *goquery.Selection) bool {
		l, perr := p.parseItem(item, base)
		if perr != nil {
			skipped++
			p.logger.Warn("skipping unparseable item", map[string]interface{}{
				"index": i,
				"error": perr.Error(),
			})
			return true
		}
		listings = append(listings, l)
		return len(listings) < p.config.MaxItems
	})

	p.logger.Debug("page scraped", map[string]interface{}{
		"count":   len(listings),
		"skipped": skipped,
	})
	return listings, nil
}

func (p *HTMLProvider) parseItem(item *goquery.Selection, base *url.URL) (models.Listing, error) {
	sel := p.config.Selectors

	name := text(item, sel.Name)
	if name == "" {
		return models.Listing{}, fmt.Errorf("missing name")
	}

	l := models.Listing{
		Platform:    p.config.Platform,
		Name:        name,
		SourceLabel: text(item, sel.Source),
		Cuisine:     strings.ToLower(text(item, sel.Cuisine)),
		Description: text(item, sel.Description),
		ImageURL:    resolve(base, attr(item, sel.Image, "src")),
		Link:        resolve(base, attr(item, sel.Link, "href")),
	}

	var err error
	if raw := text(item, sel.Price); raw != "" {
		if l.Price, err = ParseNumber(raw); err != nil {
			return models.Listing{}, fmt.Errorf("price %q: %w", raw, err)
		}
	}
	if raw := text(item, sel.Rating); raw != "" {
		if l.Rating, err = ParseNumber(raw); err != nil {
			return models.Listing{}, fmt.Errorf("rating %q: %w", raw, err)
		}
	}
	if raw := text(item, sel.Reviews); raw != "" {
		n, nerr := ParseNumber(raw)
		if nerr != nil {
			return models.Listing{}, fmt.Errorf("reviews %q: %w", raw, nerr)
		}
		l.ReviewCount = int(n)
	}
	if raw := text(item, sel.Distance); raw != "" {
		km, derr := ParseNumber(raw)
		if derr != nil {
			return models.Listing{}, fmt.Errorf("distance %q: %w", raw, derr)
		}
		l.DistanceKm = &km
	}
	if sel.Tags != "" {
		item.Find(sel.Tags).Each(func(_ int, s *goquery.Selection) {
			if tag := strings.TrimSpace(s.Text()); tag != "" {
				l.Tags = append(l.Tags, strings.ToLower(tag))
			}
		})
	}
	return l, nil
}

func text(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.Join(strings.Fields(item.Find(selector).First().Text()), " ")
}

func attr(item *goquery.Selection, selector, name string) string {
	if selector == "" {
		return ""
	}
	v, _ := item.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

func resolve(base *url.URL, ref string) string {
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func expandURL(template, query, location string) string {
	return strings.NewReplacer(
		"{query}", url.QueryEscape(query),
		"{location}", url.QueryEscape(location),
	).Replace(template)
}

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParseNumber extracts the first decimal number from display text such as
// "₹1,249", "4.3 ★", "(2.1k)" or "3.5 km". A trailing k multiplies by 1000.
func ParseNumber(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.ToLower(raw), ",", "")
	loc := numberPattern.FindStringIndex(cleaned)
	if loc == nil {
		return 0, fmt.Errorf("no number in %q", raw)
	}
	v, err := strconv.ParseFloat(cleaned[loc[0]:loc[1]], 64)
	if err != nil {
		return 0, err
	}
	if loc[1] < len(cleaned) && cleaned[loc[1]] == 'k' {
		v *= 1000
	}
	return v, nil
}
