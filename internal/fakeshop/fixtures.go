package fakeshop

import "github.com/example/shopcheck/internal/domain"

// Fixture slugs seeded into every server.
const (
	HeadphonesSlug = "wireless-headphones"
	CableSlug      = "usb-c-cable"
	LampSlug       = "desk-lamp"
	BookSlug       = "go-in-practice"
	EuroMugSlug    = "espresso-mug"
)

// HeadphonesPrice is the seeded unit price of HeadphonesSlug in USD minor units.
const HeadphonesPrice int64 = 24999

func (s *store) seed() {
	electronics := domain.Category{ID: "cat-electronics", Slug: "electronics", Name: "Electronics"}
	books := domain.Category{ID: "cat-books", Slug: "books", Name: "Books"}
	home := domain.Category{ID: "cat-home", Slug: "home", Name: "Home & Kitchen"}
	s.categories = []domain.Category{electronics, books, home}

	product := func(id, slug, name string, price int64, currency string, stock int64, c domain.Category) *domain.Product {
		cat := c
		return &domain.Product{ID: id, Slug: slug, Name: name, PriceMinor: price, Currency: currency, StockQty: stock, Category: &cat}
	}
	s.products = []*domain.Product{
		product("prod-headphones", HeadphonesSlug, "Wireless Headphones", HeadphonesPrice, "USD", 500, electronics),
		product("prod-cable", CableSlug, "USB-C Cable", 1299, "USD", 1000, electronics),
		product("prod-lamp", LampSlug, "Desk Lamp", 4599, "USD", 0, home),
		product("prod-book", BookSlug, "Go in Practice", 3999, "USD", 25, books),
		product("prod-mug", EuroMugSlug, "Espresso Mug", 1450, "EUR", 60, home),
	}
}
