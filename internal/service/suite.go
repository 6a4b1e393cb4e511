package service

import (
	"errors"
	"fmt"

	"github.com/example/shopcheck/internal/catalog"
	"github.com/example/shopcheck/internal/session"
	"github.com/example/shopcheck/internal/transport"
)

// Errors returned when assembling a suite.
var (
	// ErrUnsupportedProtocol is returned for an unknown protocol or a missing client.
	ErrUnsupportedProtocol = errors.New("service: unsupported protocol")
)

// Clients holds the transport for each protocol. Only the selected one is needed.
type Clients struct {
	GraphQL transport.GraphQLClient
	REST    transport.RESTClient
}

// Suite bundles one adapter per domain, all speaking the same protocol.
type Suite struct {
	Protocol transport.Protocol
	Auth     AuthService
	Category CategoryService
	Product  ProductService
	Cart     CartService
	Order    OrderService
	Wallet   WalletService
}

// NewSuite selects the adapters for protocol once. Every adapter sends the
// session's headers with each request.
func NewSuite(protocol transport.Protocol, clients Clients, cat *catalog.Catalog, sess *session.Context) (*Suite, error) {
	if cat == nil {
		var err error
		if cat, err = catalog.Default(); err != nil {
			return nil, err
		}
	}
	if sess == nil {
		return nil, fmt.Errorf("service: session is required")
	}

	switch protocol {
	case transport.ProtocolGraphQL:
		if clients.GraphQL == nil {
			return nil, fmt.Errorf("%w: graphql client not configured", ErrUnsupportedProtocol)
		}
		g := gqlCaller{client: clients.GraphQL, cat: cat, sess: sess}
		return &Suite{
			Protocol: protocol,
			Auth:     &graphQLAuth{g},
			Category: &graphQLCategory{g},
			Product:  &graphQLProduct{g},
			Cart:     &graphQLCart{g},
			Order:    &graphQLOrder{g},
			Wallet:   &graphQLWallet{g},
		}, nil

	case transport.ProtocolREST:
		if clients.REST == nil {
			return nil, fmt.Errorf("%w: rest client not configured", ErrUnsupportedProtocol)
		}
		r := restCaller{client: clients.REST, cat: cat, sess: sess}
		return &Suite{
			Protocol: protocol,
			Auth:     &restAuth{r},
			Category: &restCategory{r},
			Product:  &restProduct{r},
			Cart:     &restCart{r},
			Order:    &restOrder{r},
			Wallet:   &restWallet{r},
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, protocol)
	}
}
