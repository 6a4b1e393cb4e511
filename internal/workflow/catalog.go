package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/example/shopcheck/internal/check"
	"github.com/example/shopcheck/internal/domain"
)

// RunCatalog checks listing, pagination, lookup misses and search over
// categories and products. It needs no session.
func (o *Orchestrator) RunCatalog(ctx context.Context) error {
	cats := o.suite.Category
	products := o.suite.Product

	page := step(o, "category.list", func() domain.CategoryPage {
		return cats.List(ctx, domain.ListParams{Page: 1, Limit: 10})
	})
	if !page.Success || len(page.Items) == 0 {
		return setupFailed(o.current, "list categories", page.Outcome)
	}
	o.rec.Check(
		check.Equal("first page is page 1", 1, page.Pagination.Page),
		check.True("page respects the limit", len(page.Items) <= 10, fmt.Sprintf("%d items", len(page.Items))),
		check.True("total covers the page", page.Pagination.Total >= len(page.Items), fmt.Sprintf("total %d", page.Pagination.Total)),
	)

	for _, p := range []domain.ListParams{{Page: 0, Limit: 0}, {Page: -1, Limit: -1}} {
		res := step(o, "category.list", func() domain.CategoryPage { return cats.List(ctx, p) })
		o.rec.Check(check.Transport(fmt.Sprintf("page %d limit %d is answered", p.Page, p.Limit), res.Outcome))
	}

	slug := page.Items[0].Slug
	one := step(o, "category.bySlug", func() domain.CategoryResult { return cats.BySlug(ctx, slug) })
	if o.succeeded("category by slug", one.Outcome) && one.Category != nil {
		o.rec.Check(check.Equal("category slug", slug, one.Category.Slug))
	}

	ghost := "missing-" + uuid.NewString()
	noCat := step(o, "category.bySlug", func() domain.CategoryResult { return cats.BySlug(ctx, ghost) })
	o.rec.Check(
		check.Failed("unknown category", noCat.Outcome, domain.FailureNotFound),
		check.Equal("unknown category message", "Category not found", noCat.Message),
		check.True("unknown category returns none", noCat.Category == nil, "category returned"),
	)

	inCat := step(o, "category.products", func() domain.ProductPage { return cats.Products(ctx, slug, 1, 10) })
	if o.succeeded("products by category", inCat.Outcome) {
		for _, p := range inCat.Items {
			if p.Category != nil {
				o.rec.Check(check.Equal("product "+p.Slug+" is in "+slug, slug, p.Category.Slug))
			}
		}
	}

	list := step(o, "product.list", func() domain.ProductPage { return products.List(ctx, 1, 10) })
	if !list.Success || len(list.Items) == 0 {
		return setupFailed(o.current, "list products", list.Outcome)
	}
	first := list.Items[0]
	o.rec.Check(check.True("prices are non-negative", first.PriceMinor >= 0, fmt.Sprintf("price %d", first.PriceMinor)))

	bySlug := step(o, "product.bySlug", func() domain.ProductResult { return products.BySlug(ctx, first.Slug) })
	if o.succeeded("product by slug", bySlug.Outcome) && bySlug.Product != nil {
		o.rec.Check(check.Equal("slug lookup returns the listed product", first.ID, bySlug.Product.ID))
	}
	byID := step(o, "product.byId", func() domain.ProductResult { return products.ByID(ctx, first.ID) })
	if o.succeeded("product by id", byID.Outcome) && byID.Product != nil {
		o.rec.Check(
			check.Equal("id lookup returns the listed product", first.Slug, byID.Product.Slug),
			check.Equal("price is stable across lookups", first.PriceMinor, byID.Product.PriceMinor),
		)
	}

	noProduct := step(o, "product.bySlug", func() domain.ProductResult { return products.BySlug(ctx, ghost) })
	o.rec.Check(
		check.Failed("unknown product", noProduct.Outcome, domain.FailureNotFound),
		check.Equal("unknown product message", "Product not found", noProduct.Message),
		check.True("unknown product returns none", noProduct.Product == nil, "product returned"),
	)

	featured := step(o, "product.featured", func() domain.ProductList { return products.Featured(ctx, 3) })
	if o.succeeded("featured products", featured.Outcome) {
		o.rec.Check(check.True("featured respects the limit", len(featured.Items) <= 3, fmt.Sprintf("%d items", len(featured.Items))))
	}

	o.checkSearch(ctx, o.fixtures.SearchQuery, false)
	o.checkSearch(ctx, o.fixtures.SearchQuery, true)

	lower := step(o, "product.search", func() domain.ProductList {
		return products.Search(ctx, domain.SearchParams{Query: strings.ToLower(o.fixtures.SearchQuery)})
	})
	upper := step(o, "product.search", func() domain.ProductList {
		return products.Search(ctx, domain.SearchParams{Query: strings.ToUpper(o.fixtures.SearchQuery)})
	})
	if lower.Success && upper.Success {
		o.rec.Check(check.Equal("search is case-insensitive", len(lower.Items), len(upper.Items)))
	}
	return nil
}

func (o *Orchestrator) checkSearch(ctx context.Context, query string, inStockOnly bool) {
	res := step(o, "product.search", func() domain.ProductList {
		return o.suite.Product.Search(ctx, domain.SearchParams{Query: query, InStockOnly: inStockOnly})
	})
	name := fmt.Sprintf("search %q in-stock-only=%t", query, inStockOnly)
	if !o.succeeded(name, res.Outcome) {
		return
	}
	for _, p := range res.Items {
		o.rec.Check(check.True(name+" matches "+p.Slug, domain.MatchesSearch(p, query, inStockOnly),
			fmt.Sprintf("name %q stock %d", p.Name, p.StockQty)))
	}
}
