package feeds

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"arxivreco/internal/core"
	"arxivreco/internal/logger"
)

// announceReplace matches "Announce Type: replace" and "replace-cross"
var announceReplace = regexp.MustCompile(`(?i)announce\s+type:\s*replace`)

// RSSSource reads an arXiv RSS feed
type RSSSource struct {
	name    string
	url     string
	fetcher *Fetcher
}

// Name returns the feed name
func (s *RSSSource) Name() string { return s.name }

// Fetch downloads the RSS document and converts its items
func (s *RSSSource) Fetch(ctx context.Context) (core.FeedBatch, error) {
	body, err := s.fetcher.Get(ctx, s.name, s.url)
	if err != nil {
		return core.FeedBatch{}, err
	}

	day, records, err := ParseRSS(bytes.NewReader(body), s.name)
	if err != nil {
		return core.FeedBatch{}, &core.SourceFetchError{Feed: s.name, URL: s.url, Err: err}
	}

	logger.Info("Fetched RSS feed",
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

// ParseRSS converts an arXiv RSS document. The listing date is the calendar day
// the channel's publication date declares in its own offset; replacement
// announcements are skipped.
func ParseRSS(r io.Reader, feedName string) (time.Time, []core.RawCandidate, error) {
	feed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("RSS parse failed: %w", err)
	}

	var published *time.Time
	switch {
	case feed.PublishedParsed != nil:
		published = feed.PublishedParsed
	case feed.UpdatedParsed != nil:
		published = feed.UpdatedParsed
	default:
		return time.Time{}, nil, fmt.Errorf("%w: channel has no publication date", core.ErrListingDateNotFound)
	}
	day := core.CalendarDay(*published)

	records := make([]core.RawCandidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if announceReplace.MatchString(item.Description) {
			continue
		}

		id := arxivIDFromLink(item.Link)
		if id == "" {
			id = strings.TrimSpace(item.GUID)
		}

		title := collapseSpace(item.Title)
		description := stripMarkup(item.Description)

		records = append(records, core.RawCandidate{
			ID:          id,
			Title:       title,
			Authors:     itemAuthors(item),
			Link:        strings.TrimSpace(item.Link),
			Text:        collapseSpace(title + " " + description),
			FeedName:    feedName,
			ListingDate: day,
		})
	}

	return day, records, nil
}

// arxivIDFromLink returns the path segment after "/abs/"
func arxivIDFromLink(link string) string {
	idx := strings.Index(link, "/abs/")
	if idx < 0 {
		return ""
	}
	id := link[idx+len("/abs/"):]
	if cut := strings.IndexAny(id, "?#"); cut >= 0 {
		id = id[:cut]
	}
	return strings.Trim(strings.TrimSpace(id), "/")
}

// itemAuthors prefers structured authors and falls back to dc:creator, which
// arXiv publishes as one comma-separated string.
func itemAuthors(item *gofeed.Item) []string {
	var raw []string
	for _, p := range item.Authors {
		if p != nil {
			raw = append(raw, p.Name)
		}
	}
	if len(raw) == 0 && item.DublinCoreExt != nil {
		raw = item.DublinCoreExt.Creator
	}

	var authors []string
	for _, entry := range raw {
		for _, name := range strings.Split(entry, ",") {
			if name = collapseSpace(name); name != "" {
				authors = append(authors, name)
			}
		}
	}
	return authors
}

// stripMarkup returns the visible text of an HTML fragment
func stripMarkup(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapseSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapseSpace(fragment)
	}
	return collapseSpace(doc.Text())
}
