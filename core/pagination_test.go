package core

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseListPerPage(t *testing.T) {
	cases := map[string]int{
		"10": 10, "25": 25, "50": 50, "100": 100,
		"": 25, "7": 25, "abc": 25,
	}
	for in, want := range cases {
		if got := parseListPerPage(in); got != want {
			t.Errorf("parseListPerPage(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseListPage(t *testing.T) {
	if got := parseListPage("3"); got != 3 {
		t.Errorf("parseListPage(3) = %d", got)
	}
	if got := parseListPage("-1"); got != 1 {
		t.Errorf("parseListPage(-1) = %d, want 1", got)
	}
	if got := parseListPage(""); got != 1 {
		t.Errorf("parseListPage(\"\") = %d, want 1", got)
	}
}

func TestBuildPaginationSinglePage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/regions", nil)
	pg := buildPagination(r, 1, 25, 10, "")
	if pg.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1", pg.TotalPages)
	}
	if len(pg.Links) != 0 {
		t.Errorf("single page should have no links, got %d", len(pg.Links))
	}
	if pg.RangeStart != 1 || pg.RangeEnd != 10 {
		t.Errorf("range = [%d, %d], want [1, 10]", pg.RangeStart, pg.RangeEnd)
	}
}

func TestBuildPaginationMiddlePage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/regions?q=el", nil)
	pg := buildPagination(r, 2, 10, 35, "")
	if pg.TotalPages != 4 {
		t.Fatalf("TotalPages = %d, want 4", pg.TotalPages)
	}
	if pg.Offset != 10 {
		t.Errorf("Offset = %d, want 10", pg.Offset)
	}

	labels := make([]string, 0, len(pg.Links))
	for _, l := range pg.Links {
		labels = append(labels, l.Label)
	}
	joined := strings.Join(labels, " ")
	for _, want := range []string{"<<", "<", "1", "2", "3", "4", ">", ">>"} {
		if !strings.Contains(joined, want) {
			t.Errorf("links %v missing %q", labels, want)
		}
	}

	var current int
	for _, l := range pg.Links {
		if l.Current {
			current++
			if l.Label != "2" {
				t.Errorf("current link is %q, want 2", l.Label)
			}
			if !strings.Contains(l.URL, "page=2") {
				t.Errorf("current link URL %q", l.URL)
			}
			if !strings.Contains(l.URL, "q=el") {
				t.Errorf("link dropped the search query: %q", l.URL)
			}
		}
	}
	if current != 1 {
		t.Errorf("%d current links, want 1", current)
	}
}

func TestBuildPaginationClampsPage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/regions", nil)
	pg := buildPagination(r, 99, 10, 35, "")
	if pg.Page != 4 {
		t.Errorf("Page = %d, want 4 (clamped)", pg.Page)
	}
}

func TestBuildPaginationWindow(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/regions", nil)
	pg := buildPagination(r, 1, 10, 1000, "")
	numeric := 0
	for _, l := range pg.Links {
		if !l.IsNav {
			numeric++
		}
	}
	if numeric != 10 {
		t.Errorf("window shows %d pages, want 10", numeric)
	}
}
