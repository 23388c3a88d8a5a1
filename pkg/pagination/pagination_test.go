package pagination_test

import (
	"net/url"
	"testing"

	"github.com/JaimeStill/ml-agent/pkg/pagination"
)

func TestPageRequest_Normalize(t *testing.T) {
	cfg := pagination.Config{
		DefaultPageSize: 20,
		MaxPageSize:     100,
	}

	tests := []struct {
		name         string
		request      pagination.PageRequest
		wantPage     int
		wantPageSize int
	}{
		{
			name:         "valid values unchanged",
			request:      pagination.PageRequest{Page: 2, PageSize: 25},
			wantPage:     2,
			wantPageSize: 25,
		},
		{
			name:         "zero page becomes 1",
			request:      pagination.PageRequest{Page: 0, PageSize: 25},
			wantPage:     1,
			wantPageSize: 25,
		},
		{
			name:         "zero page size gets default",
			request:      pagination.PageRequest{Page: 1, PageSize: 0},
			wantPage:     1,
			wantPageSize: 20,
		},
		{
			name:         "page size exceeding max gets capped",
			request:      pagination.PageRequest{Page: 1, PageSize: 200},
			wantPage:     1,
			wantPageSize: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.request.Normalize(cfg)

			if tt.request.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", tt.request.Page, tt.wantPage)
			}

			if tt.request.PageSize != tt.wantPageSize {
				t.Errorf("PageSize = %d, want %d", tt.request.PageSize, tt.wantPageSize)
			}
		})
	}
}

func TestPageRequest_Offset(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		pageSize   int
		wantOffset int
	}{
		{"first page", 1, 20, 0},
		{"second page", 2, 20, 20},
		{"third page", 3, 10, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := pagination.PageRequest{Page: tt.page, PageSize: tt.pageSize}

			if offset := req.Offset(); offset != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", offset, tt.wantOffset)
			}
		})
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

	values := url.Values{}
	values.Set("page", "3")
	values.Set("page_size", "10")
	values.Set("search", "llama")

	req := pagination.PageRequestFromQuery(values, cfg)

	if req.Page != 3 {
		t.Errorf("Page = %d, want 3", req.Page)
	}
	if req.PageSize != 10 {
		t.Errorf("PageSize = %d, want 10", req.PageSize)
	}
	if req.Search == nil || *req.Search != "llama" {
		t.Errorf("Search = %v, want llama", req.Search)
	}
}

func TestPageRequestFromQuery_Empty(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

	req := pagination.PageRequestFromQuery(url.Values{}, cfg)

	if req.Page != 1 || req.PageSize != 20 {
		t.Errorf("request = %+v, want normalized defaults", req)
	}
	if req.Search != nil {
		t.Errorf("Search = %v, want nil", req.Search)
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name           string
		total          int
		pageSize       int
		wantTotalPages int
	}{
		{"exact division", 100, 20, 5},
		{"with remainder", 101, 20, 6},
		{"empty results", 0, 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pagination.NewPageResult([]string{"a"}, tt.total, 1, tt.pageSize)

			if result.TotalPages != tt.wantTotalPages {
				t.Errorf("TotalPages = %d, want %d", result.TotalPages, tt.wantTotalPages)
			}
		})
	}
}

func TestNewPageResult_NilDataBecomesEmptySlice(t *testing.T) {
	result := pagination.NewPageResult[string](nil, 0, 1, 20)

	if result.Data == nil {
		t.Error("Data should be an empty slice, not nil")
	}
	if len(result.Data) != 0 {
		t.Errorf("len(Data) = %d, want 0", len(result.Data))
	}
}
