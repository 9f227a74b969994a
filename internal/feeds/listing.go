package feeds

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"arxivreco/internal/core"
	"arxivreco/internal/logger"
)

const (
	listingHeaderPrefix = "showing new listings for"
	listingDateLayout   = "Monday, 2 January 2006"
)

// ListingSource scrapes an arXiv /list/<category>/new page
type ListingSource struct {
	name    string
	url     string
	fetcher *Fetcher
}

// Name returns the feed name
func (s *ListingSource) Name() string { return s.name }

// Fetch downloads the listing page and parses its date and entries
func (s *ListingSource) Fetch(ctx context.Context) (core.FeedBatch, error) {
	body, err := s.fetcher.Get(ctx, s.name, s.url)
	if err != nil {
		return core.FeedBatch{}, err
	}

	day, records, err := ParseListing(bytes.NewReader(body), s.url, s.name)
	if err != nil {
		return core.FeedBatch{}, &core.SourceFetchError{Feed: s.name, URL: s.url, Err: err}
	}

	logger.Info("Fetched listing",
		"feed", s.name,
		"listing_date", core.FormatDay(day),
		"records", len(records))

	return core.FeedBatch{
		FeedName:    s.name,
		ListingDate: day,
		Records:     records,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

// ParseListing extracts the listing date and all non-replacement entries from an
// arXiv "new" listing page. Relative abstract links are resolved against pageURL.
func ParseListing(r io.Reader, pageURL, feedName string) (time.Time, []core.RawCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	day, err := parseListingDate(doc)
	if err != nil {
		return time.Time{}, nil, err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}

	records := make([]core.RawCandidate, 0)
	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		dts := dl.ChildrenFiltered("dt")
		dds := dl.ChildrenFiltered("dd")
		n := min(dts.Length(), dds.Length())

		for i := 0; i < n; i++ {
			dt, dd := dts.Eq(i), dds.Eq(i)

			if strings.Contains(dt.Text(), "(replaced)") {
				continue
			}

			anchor := dt.Find(`a[href^="/abs/"]`).First()
			href, ok := anchor.Attr("href")
			if !ok || strings.TrimSpace(href) == "" {
				continue
			}
			link := resolveLink(base, strings.TrimSpace(href))

			id := strings.TrimSpace(strings.TrimPrefix(collapseSpace(anchor.Text()), "arXiv:"))

			title := collapseSpace(dd.Find("div.list-title").First().Text())
			title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))

			var authors []string
			dd.Find("div.list-authors a").Each(func(_ int, a *goquery.Selection) {
				if name := collapseSpace(a.Text()); name != "" {
					authors = append(authors, name)
				}
			})

			records = append(records, core.RawCandidate{
				ID:          id,
				Title:       title,
				Authors:     authors,
				Link:        link,
				Text:        collapseSpace(dd.Text()),
				FeedName:    feedName,
				ListingDate: day,
			})
		}
	})

	return day, records, nil
}

// parseListingDate reads the "Showing new listings for <weekday>, <d> <Month> <yyyy>" header
func parseListingDate(doc *goquery.Document) (time.Time, error) {
	var header string
	doc.Find("h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := collapseSpace(h.Text())
		if strings.HasPrefix(strings.ToLower(text), listingHeaderPrefix) {
			header = text
			return false
		}
		return true
	})
	if header == "" {
		return time.Time{}, core.ErrListingDateNotFound
	}

	raw := strings.TrimSpace(header[len(listingHeaderPrefix):])
	day, err := time.ParseInLocation(listingDateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cannot parse %q: %v", core.ErrListingDateNotFound, raw, err)
	}
	return day, nil
}

func resolveLink(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
