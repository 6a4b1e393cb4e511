// Package generator produces fresh actor credentials for each iteration.
package generator

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/example/shopcheck/internal/domain"
)

// ErrInvalidConfig is returned for unusable generator settings.
var ErrInvalidConfig = errors.New("generator: invalid configuration")

// MinPasswordLength is the shortest password the backend accepts.
const MinPasswordLength = 6

// Config configures an ActorGenerator.
type Config struct {
	// Prefix starts every username, so test accounts are easy to spot.
	// Default: "sc"
	Prefix string
	// PasswordLength must be at least MinPasswordLength.
	// Default: 12
	PasswordLength int
	// Seed makes the faker deterministic. Zero picks a random seed. Usernames
	// stay unique either way.
	Seed uint64
}

// ActorGenerator creates unique actors. It is safe for concurrent use.
type ActorGenerator struct {
	mu     sync.Mutex
	faker  *gofakeit.Faker
	config Config
}

// New creates an ActorGenerator.
func New(cfg Config) (*ActorGenerator, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "sc"
	}
	if cfg.PasswordLength == 0 {
		cfg.PasswordLength = 12
	}
	if cfg.PasswordLength < MinPasswordLength {
		return nil, fmt.Errorf("%w: password length %d is below %d", ErrInvalidConfig, cfg.PasswordLength, MinPasswordLength)
	}
	return &ActorGenerator{faker: gofakeit.New(cfg.Seed), config: cfg}, nil
}

// Next returns a new actor with a unique username.
func (g *ActorGenerator) Next() domain.Actor {
	g.mu.Lock()
	handle := sanitize(g.faker.Username())
	domainName := g.faker.DomainName()
	password := g.faker.Password(true, true, true, false, false, g.config.PasswordLength)
	g.mu.Unlock()

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	username := fmt.Sprintf("%s_%s_%s", g.config.Prefix, handle, suffix)
	return domain.Actor{
		Username: username,
		Email:    strings.ToLower(username + "@" + domainName),
		Password: password,
	}
}

// sanitize keeps letters and digits, lowercased.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "actor"
	}
	return b.String()
}
