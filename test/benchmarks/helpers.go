// test/benchmarks/helpers.go
package benchmarks

import (
	"fmt"
	"net/url"

	"github.com/ammerola/greencycle-be/internal/adapters/catalog"
	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/test/helpers"
)

// createBenchmarkCatalog builds a static catalog of count items with every
// fourth item a free sharing listing.
func createBenchmarkCatalog(count int) *catalog.StaticSource {
	items := helpers.CreateTestItems(count)
	for i := range items {
		items[i].Views = int64((i * 7919) % 1000)
		if i%4 == 0 {
			items[i].Kind = domain.KindSharing
			items[i].Price = 0
		}
	}
	return catalog.NewStaticSourceFromItems(items)
}

// browseQueries are representative listing page queries
func browseQueries() []url.Values {
	return []url.Values{
		{},
		{"scope": {"market"}, "sort": {"price-low"}},
		{"category": {"electronics"}, "price": {"10000-500000"}, "sort": {"popular"}},
		{"distance": {"3000"}, "sort": {"distance"}, "page": {"3"}},
		{"q": {"상품 1"}, "scope": {"sharing"}},
	}
}

func benchName(prefix string, n int) string {
	return fmt.Sprintf("%s_%d", prefix, n)
}
