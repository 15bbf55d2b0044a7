package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestFromContext_Defaults(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.Offset)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=50&offset=10", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Limit != 50 {
		t.Errorf("expected limit 50, got %d", p.Limit)
	}
	if p.Offset != 10 {
		t.Errorf("expected offset 10, got %d", p.Offset)
	}
}

func TestFromContext_CapsAtMaxLimit(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=5000", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)
	if p.Limit != MaxLimit {
		t.Errorf("expected limit capped at %d, got %d", MaxLimit, p.Limit)
	}
}

func TestFromContext_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"negative limit", "/?limit=-5"},
		{"zero limit", "/?limit=0"},
		{"non-numeric limit", "/?limit=abc"},
		{"negative offset", "/?offset=-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, tt.query, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			p := FromContext(c)
			if p.Limit <= 0 || p.Limit > MaxLimit {
				t.Errorf("limit not normalized: %d", p.Limit)
			}
			if p.Offset < 0 {
				t.Errorf("offset not normalized: %d", p.Offset)
			}
		})
	}
}

func TestNewResponse_HasMore(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		limit   int
		offset  int
		hasMore bool
	}{
		{"first page of many", 100, 20, 0, true},
		{"last full page", 100, 20, 80, false},
		{"exact fit", 20, 20, 0, false},
		{"empty result", 0, 20, 0, false},
		{"middle page", 50, 10, 20, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewResponse(nil, tt.total, tt.limit, tt.offset)
			if resp.HasMore != tt.hasMore {
				t.Errorf("HasMore = %v, want %v", resp.HasMore, tt.hasMore)
			}
			if resp.Total != tt.total {
				t.Errorf("Total = %d, want %d", resp.Total, tt.total)
			}
		})
	}
}

func TestParams_HasNext(t *testing.T) {
	p := Params{Limit: 10, Offset: 0}
	if !p.HasNext(25) {
		t.Error("expected more pages after first of 25")
	}
	if p.HasNext(10) {
		t.Error("expected no more pages when the first page covers the total")
	}

	p = Params{Limit: 10, Offset: 20}
	if p.HasNext(25) {
		t.Error("expected no more pages past the last partial page")
	}
}

func TestParams_NextOffset(t *testing.T) {
	p := Params{Limit: 10, Offset: 20}
	if got := p.NextOffset(); got != 30 {
		t.Errorf("NextOffset() = %d, want 30", got)
	}
}
