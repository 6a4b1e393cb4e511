package service

import (
	"context"
	"strconv"

	"github.com/example/shopcheck/internal/domain"
	"github.com/example/shopcheck/internal/envelope"
)

type graphQLCategory struct{ gqlCaller }

func (c *graphQLCategory) List(ctx context.Context, params domain.ListParams) domain.CategoryPage {
	vars := map[string]any{"page": params.Page, "limit": params.Limit}
	if params.Search != "" {
		vars["search"] = params.Search
	}
	env, _, err := c.call(ctx, "category.list", vars)
	return categoryPage(env, err)
}

func (c *graphQLCategory) BySlug(ctx context.Context, slug string) domain.CategoryResult {
	env, _, err := c.call(ctx, "category.bySlug", map[string]any{"slug": slug})
	return categoryResult(env, err)
}

func (c *graphQLCategory) Products(ctx context.Context, slug string, page, limit int) domain.ProductPage {
	env, _, err := c.call(ctx, "category.products", map[string]any{"slug": slug, "page": page, "limit": limit})
	return productPage(env, err)
}

type restCategory struct{ restCaller }

func (c *restCategory) List(ctx context.Context, params domain.ListParams) domain.CategoryPage {
	query := pageQuery(params.Page, params.Limit)
	if params.Search != "" {
		query["search"] = params.Search
	}
	env, _, err := c.call(ctx, "category.list", restCall{query: query})
	return categoryPage(env, err)
}

func (c *restCategory) BySlug(ctx context.Context, slug string) domain.CategoryResult {
	env, _, err := c.call(ctx, "category.bySlug", restCall{params: map[string]string{"slug": slug}})
	return categoryResult(env, err)
}

func (c *restCategory) Products(ctx context.Context, slug string, page, limit int) domain.ProductPage {
	env, _, err := c.call(ctx, "category.products", restCall{
		params: map[string]string{"slug": slug},
		query:  pageQuery(page, limit),
	})
	return productPage(env, err)
}

type graphQLProduct struct{ gqlCaller }

func (p *graphQLProduct) List(ctx context.Context, page, limit int) domain.ProductPage {
	env, _, err := p.call(ctx, "product.list", map[string]any{"page": page, "limit": limit})
	return productPage(env, err)
}

func (p *graphQLProduct) BySlug(ctx context.Context, slug string) domain.ProductResult {
	env, _, err := p.call(ctx, "product.bySlug", map[string]any{"slug": slug})
	return productResult(env, err)
}

func (p *graphQLProduct) ByID(ctx context.Context, id string) domain.ProductResult {
	env, _, err := p.call(ctx, "product.byId", map[string]any{"id": id})
	return productResult(env, err)
}

func (p *graphQLProduct) Featured(ctx context.Context, limit int) domain.ProductList {
	env, _, err := p.call(ctx, "product.featured", map[string]any{"limit": limit})
	return productList(env, err)
}

func (p *graphQLProduct) Search(ctx context.Context, params domain.SearchParams) domain.ProductList {
	env, _, err := p.call(ctx, "product.search", map[string]any{"query": params.Query, "inStockOnly": params.InStockOnly})
	return productList(env, err)
}

type restProduct struct{ restCaller }

func (p *restProduct) List(ctx context.Context, page, limit int) domain.ProductPage {
	env, _, err := p.call(ctx, "product.list", restCall{query: pageQuery(page, limit)})
	return productPage(env, err)
}

func (p *restProduct) BySlug(ctx context.Context, slug string) domain.ProductResult {
	env, _, err := p.call(ctx, "product.bySlug", restCall{params: map[string]string{"slug": slug}})
	return productResult(env, err)
}

func (p *restProduct) ByID(ctx context.Context, id string) domain.ProductResult {
	env, _, err := p.call(ctx, "product.byId", restCall{params: map[string]string{"id": id}})
	return productResult(env, err)
}

func (p *restProduct) Featured(ctx context.Context, limit int) domain.ProductList {
	env, _, err := p.call(ctx, "product.featured", restCall{query: map[string]string{"limit": strconv.Itoa(limit)}})
	return productList(env, err)
}

func (p *restProduct) Search(ctx context.Context, params domain.SearchParams) domain.ProductList {
	env, _, err := p.call(ctx, "product.search", restCall{query: map[string]string{
		"q":           params.Query,
		"inStockOnly": strconv.FormatBool(params.InStockOnly),
	}})
	return productList(env, err)
}

// pageQuery passes page and limit through untouched, including zero and
// negative values.
func pageQuery(page, limit int) map[string]string {
	return map[string]string{"page": strconv.Itoa(page), "limit": strconv.Itoa(limit)}
}

func categoryPage(env envelope.Envelope, err error) domain.CategoryPage {
	if err != nil {
		return domain.CategoryPage{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.CategoryPage{Outcome: rejection(env, domain.FailureNone)}
	}
	page := env.Object()
	return domain.CategoryPage{
		Outcome:    outcomeOf(env),
		Items:      decodeCategories(page["items"]),
		Pagination: decodePagination(envelope.Object(page, "pagination")),
	}
}

func categoryResult(env envelope.Envelope, err error) domain.CategoryResult {
	if err != nil {
		return domain.CategoryResult{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.CategoryResult{Outcome: lookupFailure(env, "Category")}
	}
	category := decodeCategory(env.Object())
	if category == nil {
		return domain.CategoryResult{Outcome: domain.NotFound("Category")}
	}
	return domain.CategoryResult{Outcome: outcomeOf(env), Category: category}
}

func productPage(env envelope.Envelope, err error) domain.ProductPage {
	if err != nil {
		return domain.ProductPage{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.ProductPage{Outcome: rejection(env, domain.FailureNone)}
	}
	page := env.Object()
	items, derr := decodeProducts(page["items"])
	if derr != nil {
		return domain.ProductPage{Outcome: decodeFailed(derr)}
	}
	return domain.ProductPage{
		Outcome:    outcomeOf(env),
		Items:      items,
		Pagination: decodePagination(envelope.Object(page, "pagination")),
	}
}

func productResult(env envelope.Envelope, err error) domain.ProductResult {
	if err != nil {
		return domain.ProductResult{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.ProductResult{Outcome: lookupFailure(env, "Product")}
	}
	if env.Object() == nil {
		return domain.ProductResult{Outcome: domain.NotFound("Product")}
	}
	product, derr := decodeProduct(env.Object())
	if derr != nil {
		return domain.ProductResult{Outcome: decodeFailed(derr)}
	}
	return domain.ProductResult{Outcome: outcomeOf(env), Product: product}
}

func productList(env envelope.Envelope, err error) domain.ProductList {
	if err != nil {
		return domain.ProductList{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.ProductList{Outcome: rejection(env, domain.FailureNone)}
	}
	items, derr := decodeProducts(env.Data)
	if derr != nil {
		return domain.ProductList{Outcome: decodeFailed(derr)}
	}
	return domain.ProductList{Outcome: outcomeOf(env), Items: items}
}
