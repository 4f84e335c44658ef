//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/greencycle-be/internal/adapters/catalog"
	"github.com/ammerola/greencycle-be/internal/adapters/db"
	redis_a "github.com/ammerola/greencycle-be/internal/adapters/redis_adapter"
	"github.com/ammerola/greencycle-be/internal/adapters/storage"
	"github.com/ammerola/greencycle-be/internal/core/services"
	"github.com/ammerola/greencycle-be/internal/handlers"
	"github.com/ammerola/greencycle-be/internal/handlers/middleware"
	"github.com/ammerola/greencycle-be/test/helpers"
)

const (
	apiV1         = "/api/v1"
	sessionHeader = "X-Session-ID"
)

type ListingE2ESuite struct {
	suite.Suite
	server    *httptest.Server
	client    *http.Client
	baseURL   string
	testDB    *helpers.TestDB
	testRedis *helpers.TestRedis
	cancel    context.CancelFunc
}

func (s *ListingE2ESuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.testRedis = helpers.SetupTestRedis(s.T())

	s.server = s.startTestServer()
	s.client = &http.Client{Timeout: 10 * time.Second}
	s.baseURL = s.server.URL + apiV1
}

func (s *ListingE2ESuite) TearDownSuite() {
	s.server.Close()
	s.cancel()
}

func (s *ListingE2ESuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
	s.testRedis.Server.FlushAll()
}

func (s *ListingE2ESuite) TestListingWorkflow() {
	// Three market listings and one sharing listing
	ids := map[string]string{}
	for _, req := range []map[string]any{
		{"title": "원목 식탁", "category": "furniture", "kind": "market", "price": 120000, "distance_km": 0.8},
		{"title": "아이폰 13", "category": "electronics", "kind": "market", "price": 450000, "original_price": 900000, "distance_km": 2.5},
		{"title": "블루투스 스피커", "category": "electronics", "kind": "market", "price": 30000, "distance_km": 4.0},
		{"title": "유아 그림책 세트", "category": "books", "kind": "sharing", "price": 0, "distance_km": 1.1},
	} {
		resp := s.request(http.MethodPost, "/items", req, nil)
		s.Require().Equal(http.StatusCreated, resp.StatusCode)

		var created map[string]any
		s.decode(resp, &created)
		ids[req["title"].(string)] = created["id"].(string)
	}

	// Market listings, cheapest first
	var page handlers.ListingResponse
	resp := s.request(http.MethodGet, "/listings?scope=market&sort=price-low", nil, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.decode(resp, &page)
	s.Equal(3, page.TotalCount)
	s.Require().Len(page.Items, 3)
	s.Equal("블루투스 스피커", page.Items[0].Title)
	s.Equal("아이폰 13", page.Items[2].Title)
	s.Equal(50, page.Items[2].DiscountPercent)

	// Category plus distance in meters
	resp = s.request(http.MethodGet, "/listings?category=electronics&distance=3000", nil, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.decode(resp, &page)
	s.Require().Len(page.Items, 1)
	s.Equal("아이폰 13", page.Items[0].Title)

	// Sharing scope only returns free listings
	resp = s.request(http.MethodGet, "/listings?scope=sharing", nil, nil)
	s.decode(resp, &page)
	s.Require().Len(page.Items, 1)
	s.Zero(page.Items[0].Price)

	// Nothing matches
	resp = s.request(http.MethodGet, "/listings?price=1000000%2B", nil, nil)
	s.decode(resp, &page)
	s.True(page.Empty)
	s.NotEmpty(page.Message)

	// Invalid sort is a client error
	resp = s.request(http.MethodGet, "/listings?sort=cheapest", nil, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Likes feed the popular sort
	speaker := ids["블루투스 스피커"]
	for i := 0; i < 2; i++ {
		resp = s.request(http.MethodPost, "/items/"+speaker+"/like", nil, nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	// Mark the table sold and check it drops out of the available filter
	table := ids["원목 식탁"]
	resp = s.request(http.MethodPut, "/items/"+table, map[string]any{
		"title": "원목 식탁", "category": "furniture", "kind": "market",
		"price": 120000, "status": "sold", "distance_km": 0.8,
	}, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.request(http.MethodGet, "/listings?status=available&scope=market", nil, nil)
	s.decode(resp, &page)
	s.Equal(2, page.TotalCount)

	// Permanent delete
	resp = s.request(http.MethodDelete, "/items/"+table+"?permanent=true", nil, nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = s.request(http.MethodGet, "/items/"+table, nil, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Export the remaining catalog as a workbook
	resp = s.request(http.MethodGet, "/listings/export", nil, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	s.Require().NoError(err)

	exported, err := catalog.ReadWorkbook(data)
	s.Require().NoError(err)
	s.Len(exported, 3)
}

func (s *ListingE2ESuite) TestPagination() {
	for i := 0; i < 30; i++ {
		resp := s.request(http.MethodPost, "/items", map[string]any{
			"title":    fmt.Sprintf("중고 의자 %02d", i+1),
			"category": "furniture",
			"kind":     "market",
			"price":    10000 + i*1000,
		}, nil)
		s.Require().Equal(http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	var page handlers.ListingResponse
	resp := s.request(http.MethodGet, "/listings?page=3&page_size=10", nil, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.decode(resp, &page)
	s.Equal(3, page.Page)
	s.Equal(3, page.TotalPages)
	s.True(page.HasPrev)
	s.False(page.HasNext)
	s.Len(page.Items, 10)

	// Out-of-range pages clamp to the last page
	resp = s.request(http.MethodGet, "/listings?page=99&page_size=10", nil, nil)
	s.decode(resp, &page)
	s.Equal(3, page.Page)
}

func (s *ListingE2ESuite) TestCartWorkflow() {
	resp := s.request(http.MethodPost, "/items", map[string]any{
		"title": "캠핑 의자", "category": "sports", "kind": "market", "price": 30000,
	}, nil)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var created map[string]any
	s.decode(resp, &created)
	id := created["id"].(string)

	session := map[string]string{sessionHeader: "e2e-session"}

	resp = s.request(http.MethodPost, "/cart/items", map[string]any{"item_id": id, "quantity": 2}, session)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var view struct {
		Summary struct {
			ItemCount int             `json:"item_count"`
			Subtotal  decimal.Decimal `json:"subtotal"`
			Shipping  decimal.Decimal `json:"shipping"`
			Total     decimal.Decimal `json:"total"`
		} `json:"summary"`
	}
	s.decode(resp, &view)
	s.Equal(2, view.Summary.ItemCount)
	s.True(view.Summary.Subtotal.Equal(decimal.NewFromInt(60000)))
	s.True(view.Summary.Shipping.IsZero())

	// 60000 - 5000 stays above the free shipping threshold
	resp = s.request(http.MethodPost, "/cart/coupon", map[string]any{"code": "ECO5000"}, session)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.decode(resp, &view)
	s.True(view.Summary.Total.Equal(decimal.NewFromInt(55000)))

	resp = s.request(http.MethodPost, "/cart/coupon", map[string]any{"code": "NOPE"}, session)
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	// A different session sees an empty cart
	resp = s.request(http.MethodGet, "/cart", nil, map[string]string{sessionHeader: "other"})
	s.decode(resp, &view)
	s.Zero(view.Summary.ItemCount)

	resp = s.request(http.MethodDelete, "/cart", nil, session)
	s.Equal(http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = s.request(http.MethodGet, "/cart", nil, session)
	s.decode(resp, &view)
	s.Zero(view.Summary.ItemCount)
}

func (s *ListingE2ESuite) TestHealthCheck() {
	resp, err := s.client.Get(s.server.URL + "/health/ready")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var health map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&health))
	s.Equal(true, health["ready"])
}

func (s *ListingE2ESuite) startTestServer() *httptest.Server {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	logger := helpers.TestLogger()
	cfg := helpers.LoadTestConfig()

	cache := redis_a.NewCache(s.testRedis.Client, time.Minute, logger)
	repo := db.NewItemRepository(s.testDB.Database, logger)
	source := catalog.NewCachedSource(repo, cache, time.Minute, logger)
	images := storage.NewLocalImageStore(s.T().TempDir(), "/images", logger)

	itemService := services.NewItemService(repo, source, images, logger)
	listingService := services.NewListingService(source, cfg.Catalog.PageSize, logger)
	cartService := services.NewCartService(redis_a.NewCartStore(cache, "cart:", time.Hour), repo, logger)

	listingHandler := handlers.NewListingHandler(listingService, cfg.Catalog.MaxPageSize, logger)
	itemHandler := handlers.NewItemHandler(itemService, logger)
	cartHandler := handlers.NewCartHandler(cartService, logger)
	healthHandler := handlers.NewHealthHandler(s.testDB.Database, cache, nil, handlers.BuildInfo{Version: "e2e"}, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.HandleFunc("GET "+apiV1+"/listings", listingHandler.List)
	mux.HandleFunc("GET "+apiV1+"/listings/export", listingHandler.Export)
	mux.HandleFunc("POST "+apiV1+"/items", itemHandler.Create)
	mux.HandleFunc("GET "+apiV1+"/items/{id}", itemHandler.Get)
	mux.HandleFunc("PUT "+apiV1+"/items/{id}", itemHandler.Update)
	mux.HandleFunc("DELETE "+apiV1+"/items/{id}", itemHandler.Delete)
	mux.HandleFunc("POST "+apiV1+"/items/{id}/like", itemHandler.Like)
	mux.HandleFunc("GET "+apiV1+"/cart", cartHandler.Get)
	mux.HandleFunc("POST "+apiV1+"/cart/items", cartHandler.AddItem)
	mux.HandleFunc("POST "+apiV1+"/cart/coupon", cartHandler.ApplyCoupon)
	mux.HandleFunc("DELETE "+apiV1+"/cart", cartHandler.Clear)

	chain := middleware.Chain(ctx, middleware.Options{
		RequestIDHeader: "X-Request-ID",
		SessionHeader:   sessionHeader,
		RequestTimeout:  5 * time.Second,
	}, logger)

	return httptest.NewServer(chain.Then(mux))
}

func (s *ListingE2ESuite) request(method, path string, body any, headers map[string]string) *http.Response {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *ListingE2ESuite) decode(resp *http.Response, v any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func TestListingE2E(t *testing.T) {
	suite.Run(t, new(ListingE2ESuite))
}
