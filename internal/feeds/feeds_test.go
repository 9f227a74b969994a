package feeds

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"arxivreco/internal/core"
	"arxivreco/internal/merge"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("Failed to read fixture %s: %v", name, err)
	}
	return data
}

func TestParseListing(t *testing.T) {
	page := readFixture(t, "grqc_new.html")

	day, records, err := ParseListing(strings.NewReader(string(page)), "https://arxiv.org/list/gr-qc/new", "gr-qc")
	if err != nil {
		t.Fatalf("ParseListing failed: %v", err)
	}

	if got := core.FormatDay(day); got != "2025-12-12" {
		t.Errorf("Expected listing date 2025-12-12, got %s", got)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records (replacement skipped), got %d", len(records))
	}

	first := records[0]
	if first.ID != "2512.01234" {
		t.Errorf("Expected id 2512.01234, got %q", first.ID)
	}
	if first.Link != "https://arxiv.org/abs/2512.01234" {
		t.Errorf("Unexpected link %q", first.Link)
	}
	if first.Title != "Ringdown spectroscopy of binary black holes" {
		t.Errorf("Unexpected title %q", first.Title)
	}
	if strings.Join(first.Authors, "|") != "Jane Doe|Richard Roe" {
		t.Errorf("Unexpected authors %v", first.Authors)
	}
	if !strings.Contains(first.Text, "quasinormal modes") || strings.Contains(first.Text, "\n") {
		t.Errorf("Unexpected text %q", first.Text)
	}
	if first.FeedName != "gr-qc" || !first.ListingDate.Equal(day) {
		t.Errorf("Record not stamped with feed and date: %+v", first)
	}

	for _, r := range records {
		if r.ID == "2401.00001" {
			t.Error("Replaced entry should be skipped")
		}
	}
}

func TestParseListing_MissingDate(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{name: "no header", html: `<html><body><dl></dl></body></html>`},
		{name: "bad date", html: `<html><body><h3>Showing new listings for someday soon</h3></body></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseListing(strings.NewReader(tt.html), "https://arxiv.org/list/gr-qc/new", "gr-qc")
			if !errors.Is(err, core.ErrListingDateNotFound) {
				t.Errorf("Expected ErrListingDateNotFound, got %v", err)
			}
		})
	}
}

func TestParseRSS(t *testing.T) {
	data := readFixture(t, "astroph.rss")

	day, records, err := ParseRSS(strings.NewReader(string(data)), "astro-ph")
	if err != nil {
		t.Fatalf("ParseRSS failed: %v", err)
	}

	if got := core.FormatDay(day); got != "2025-12-12" {
		t.Errorf("Expected listing date 2025-12-12, got %s", got)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records (replace-cross skipped), got %d", len(records))
	}

	first := records[0]
	if first.ID != "2512.01234" {
		t.Errorf("Expected id 2512.01234, got %q", first.ID)
	}
	if strings.Join(first.Authors, "|") != "Jane Doe|Richard Roe" {
		t.Errorf("Unexpected authors %v", first.Authors)
	}
	if strings.Contains(first.Text, "<i>") || !strings.Contains(first.Text, "quasinormal modes") {
		t.Errorf("Markup not stripped: %q", first.Text)
	}
	if !strings.HasPrefix(first.Text, "Ringdown spectroscopy") {
		t.Errorf("Expected text to start with the title, got %q", first.Text)
	}
}

const offsetRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss xmlns:dc="http://purl.org/dc/elements/1.1/" version="2.0">
  <channel>
    <title>gr-qc updates on arXiv.org</title>
    <link>http://rss.arxiv.org/rss/gr-qc</link>
    <pubDate>%s</pubDate>
    <item>
      <title>Horizon tides</title>
      <link>https://arxiv.org/abs/2512.07777</link>
      <description>arXiv:2512.07777v1 Announce Type: new
Abstract: Tidal heating of horizons.</description>
      <dc:creator>Ann Author</dc:creator>
    </item>
  </channel>
</rss>`

func TestParseRSS_DeclaredDayWithOffset(t *testing.T) {
	tests := []struct {
		pubDate string
		want    string
	}{
		{pubDate: "Fri, 12 Dec 2025 00:00:00 +0900", want: "2025-12-12"},
		{pubDate: "Fri, 12 Dec 2025 23:30:00 -0500", want: "2025-12-12"},
		{pubDate: "Fri, 12 Dec 2025 00:00:00 +0000", want: "2025-12-12"},
	}

	for _, tt := range tests {
		t.Run(tt.pubDate, func(t *testing.T) {
			doc := fmt.Sprintf(offsetRSS, tt.pubDate)
			day, records, err := ParseRSS(strings.NewReader(doc), "gr-qc")
			if err != nil {
				t.Fatalf("ParseRSS failed: %v", err)
			}
			if got := core.FormatDay(day); got != tt.want {
				t.Errorf("Expected listing date %s, got %s", tt.want, got)
			}
			if len(records) != 1 || !records[0].ListingDate.Equal(day) {
				t.Errorf("Expected one record dated %s, got %+v", tt.want, records)
			}
		})
	}
}

func TestParseRSS_SameDayAsListingIsNotStale(t *testing.T) {
	listingDay, listingRecords, err := ParseListing(strings.NewReader(string(readFixture(t, "grqc_new.html"))), "https://arxiv.org/list/gr-qc/new", "gr-qc")
	if err != nil {
		t.Fatalf("ParseListing failed: %v", err)
	}
	rssDay, rssRecords, err := ParseRSS(strings.NewReader(fmt.Sprintf(offsetRSS, "Fri, 12 Dec 2025 00:00:00 +0900")), "astro-ph")
	if err != nil {
		t.Fatalf("ParseRSS failed: %v", err)
	}

	res := merge.Merge([]core.FeedBatch{
		{FeedName: "gr-qc", ListingDate: listingDay, Records: listingRecords},
		{FeedName: "astro-ph", ListingDate: rssDay, Records: rssRecords},
	})

	if res.Stats.StaleBatches != 0 {
		t.Errorf("Expected no stale batches, got %d", res.Stats.StaleBatches)
	}
	if got := core.FormatDay(res.TargetDate); got != "2025-12-12" {
		t.Errorf("Expected target date 2025-12-12, got %s", got)
	}
	found := false
	for _, c := range res.Candidates {
		if c.ID == "2512.07777" {
			found = true
		}
	}
	if !found {
		t.Error("Expected the RSS paper among the merged candidates")
	}
}

func TestArxivIDFromLink(t *testing.T) {
	tests := map[string]string{
		"https://arxiv.org/abs/2512.01234":     "2512.01234",
		"https://arxiv.org/abs/2512.01234v2":   "2512.01234v2",
		"http://arxiv.org/abs/gr-qc/9901001":   "gr-qc/9901001",
		"https://arxiv.org/abs/2512.01234?x=1": "2512.01234",
		"https://example.com/paper":            "",
	}
	for link, want := range tests {
		if got := arxivIDFromLink(link); got != want {
			t.Errorf("arxivIDFromLink(%q) = %q, want %q", link, got, want)
		}
	}
}

func TestListingSource_Fetch(t *testing.T) {
	page := readFixture(t, "grqc_new.html")
	var userAgent atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent.Store(r.Header.Get("User-Agent"))
		_, _ = w.Write(page)
	}))
	defer server.Close()

	fetcher := NewFetcher(FetcherOptions{UserAgent: "arxivreco-test"})
	src, err := New(Spec{Name: "gr-qc", URL: server.URL + "/list/gr-qc/new"}, fetcher)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	batch, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if batch.FeedName != "gr-qc" || len(batch.Records) != 2 {
		t.Errorf("Unexpected batch: %s with %d records", batch.FeedName, len(batch.Records))
	}
	if !strings.HasPrefix(batch.Records[0].Link, server.URL+"/abs/") {
		t.Errorf("Expected link resolved against page URL, got %s", batch.Records[0].Link)
	}
	if got, _ := userAgent.Load().(string); got != "arxivreco-test" {
		t.Errorf("Expected User-Agent arxivreco-test, got %q", got)
	}
}

func TestFetcher_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewFetcher(FetcherOptions{})
	_, err := f.Get(context.Background(), "gr-qc", server.URL)

	var fetchErr *core.SourceFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected SourceFetchError, got %v", err)
	}
	if fetchErr.StatusCode != http.StatusServiceUnavailable || fetchErr.Feed != "gr-qc" {
		t.Errorf("Unexpected error fields: %+v", fetchErr)
	}
}

func TestFetcher_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	f := NewFetcher(FetcherOptions{Timeout: 20 * time.Millisecond})
	_, err := f.Get(context.Background(), "slow", server.URL)

	var fetchErr *core.SourceFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected SourceFetchError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestNew_Kinds(t *testing.T) {
	f := NewFetcher(FetcherOptions{})

	if src, err := New(Spec{Name: "a", URL: "http://x", Kind: "RSS"}, f); err != nil {
		t.Errorf("Unexpected error: %v", err)
	} else if _, ok := src.(*RSSSource); !ok {
		t.Errorf("Expected *RSSSource, got %T", src)
	}

	for _, spec := range []Spec{
		{Name: "a", URL: "http://x", Kind: "atom"},
		{Name: "", URL: "http://x"},
		{Name: "a", URL: " "},
	} {
		_, err := New(spec, f)
		var cfgErr *core.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Errorf("%+v: expected ConfigurationError, got %v", spec, err)
		}
	}

	_, err := NewAll([]Spec{{Name: "a", URL: "http://x"}, {Name: "a", URL: "http://y"}}, f)
	if err == nil {
		t.Error("Expected duplicate feed names to be rejected")
	}
}

// staticSource returns a fixed batch after an optional delay
type staticSource struct {
	name  string
	delay time.Duration
	err   error
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) Fetch(ctx context.Context) (core.FeedBatch, error) {
	select {
	case <-ctx.Done():
		return core.FeedBatch{}, ctx.Err()
	case <-time.After(s.delay):
	}
	if s.err != nil {
		return core.FeedBatch{}, s.err
	}
	return core.FeedBatch{FeedName: s.name, Records: []core.RawCandidate{{ID: s.name + "-1"}}}, nil
}

func TestAggregate_PreservesSourceOrder(t *testing.T) {
	sources := []Source{
		staticSource{name: "slow", delay: 30 * time.Millisecond},
		staticSource{name: "fast"},
		staticSource{name: "medium", delay: 10 * time.Millisecond},
	}

	batches, err := Aggregate(context.Background(), sources, 3)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	var names []string
	for _, b := range batches {
		names = append(names, b.FeedName)
	}
	if strings.Join(names, ",") != "slow,fast,medium" {
		t.Errorf("Expected configured order, got %v", names)
	}
}

func TestAggregate_FailureIsFatal(t *testing.T) {
	boom := &core.SourceFetchError{Feed: "bad", URL: "http://bad", StatusCode: 500, Err: errors.New("boom")}
	sources := []Source{
		staticSource{name: "ok", delay: 50 * time.Millisecond},
		staticSource{name: "bad", err: boom},
	}

	batches, err := Aggregate(context.Background(), sources, 2)
	if batches != nil {
		t.Errorf("Expected no partial result, got %d batches", len(batches))
	}
	var fetchErr *core.SourceFetchError
	if !errors.As(err, &fetchErr) || fetchErr.Feed != "bad" {
		t.Errorf("Expected SourceFetchError for bad, got %v", err)
	}
}
