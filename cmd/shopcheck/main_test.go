package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shopcheck/internal/check"
	"github.com/example/shopcheck/internal/config"
	"github.com/example/shopcheck/internal/fakeshop"
)

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestCLI_Help(t *testing.T) {
	_, stderr, code := runCLI(t, "-help")
	assert.Equal(t, check.ExitCodeSuccess, code)
	assert.Contains(t, stderr, "shopcheck - Shop Backend Workflow Checker")
	assert.Contains(t, stderr, "-workflows")
	assert.Contains(t, stderr, "EXAMPLES:")
}

func TestCLI_Version(t *testing.T) {
	stdout, _, code := runCLI(t, "-version")
	assert.Equal(t, check.ExitCodeSuccess, code)
	assert.Contains(t, stdout, "shopcheck dev")
}

func TestCLI_UnknownFlag(t *testing.T) {
	_, _, code := runCLI(t, "-nope")
	assert.Equal(t, exitCodeError, code)
}

func TestCLI_List(t *testing.T) {
	stdout, _, code := runCLI(t, "-l")
	assert.Equal(t, check.ExitCodeSuccess, code)
	for _, name := range []string{"auth", "cart", "cart-negative", "order", "order-negative", "wallet", "catalog"} {
		assert.Contains(t, stdout, name)
	}
}

func TestCLI_Validate(t *testing.T) {
	t.Chdir(t.TempDir())

	stdout, _, code := runCLI(t, "-validate", "-protocol", "rest", "-rest-url", "http://shop.test", "-workflows", "cart, order")
	assert.Equal(t, check.ExitCodeSuccess, code)
	assert.Contains(t, stdout, "Configuration is valid")
	assert.Contains(t, stdout, "http://shop.test (rest)")
	assert.Contains(t, stdout, "cart, order")
}

func TestCLI_InvalidOverrides(t *testing.T) {
	t.Chdir(t.TempDir())

	_, stderr, code := runCLI(t, "-validate", "-protocol", "soap")
	assert.Equal(t, exitCodeError, code)
	assert.Contains(t, stderr, "target.protocol")

	_, stderr, code = runCLI(t, "-validate", "-workflows", "checkout")
	assert.Equal(t, exitCodeError, code)
	assert.Contains(t, stderr, "checkout")
}

func TestCLI_ConfigNotFound(t *testing.T) {
	_, stderr, code := runCLI(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, exitCodeError, code)
	assert.Contains(t, stderr, "loading configuration")
}

func TestCLI_RunAgainstFakeShop(t *testing.T) {
	t.Chdir(t.TempDir())
	_, ep := fakeshop.Start(t, fakeshop.Options{})

	for _, protocol := range []string{"graphql", "rest"} {
		t.Run(protocol, func(t *testing.T) {
			stdout, _, code := runCLI(t,
				"-protocol", protocol,
				"-graphql-url", ep.GraphQLURL,
				"-rest-url", ep.BaseURL,
				"-actors", "2",
				"-workflows", "auth,catalog,wallet",
				"-log-level", "error",
			)
			assert.Equal(t, check.ExitCodeSuccess, code, stdout)
			assert.Contains(t, stdout, "2 iterations, 6 workflows, 0 setup failures")
		})
	}
}

func TestCLI_RunFailureExitCode(t *testing.T) {
	t.Chdir(t.TempDir())
	shop, ep := fakeshop.Start(t, fakeshop.Options{})
	shop.Fail("category.list", 500)

	stdout, _, code := runCLI(t,
		"-protocol", "rest",
		"-rest-url", ep.BaseURL,
		"-workflows", "catalog",
		"-log-level", "error",
	)
	assert.Equal(t, check.ExitCodeFailure, code)
	assert.Contains(t, stdout, "SETUP FAILED")
}

func TestCLI_ConfigFile(t *testing.T) {
	_, ep := fakeshop.Start(t, fakeshop.Options{})
	path := filepath.Join(t.TempDir(), "shopcheck.yaml")
	body := "target:\n  protocol: rest\n  rest_url: " + ep.BaseURL + "\nrun:\n  workflows: [cart]\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	stdout, _, code := runCLI(t, "-c", path)
	assert.Equal(t, check.ExitCodeSuccess, code, stdout)
	assert.Contains(t, stdout, "1 iterations, 1 workflows")
}

func TestApplyOverrides(t *testing.T) {
	cfg := &config.Config{}
	cfg.Run.SpawnRate = 3
	applyOverrides(cfg, options{
		protocol:    "REST",
		actors:      4,
		iterations:  2,
		concurrency: 3,
		spawnRate:   -1,
		workflows:   " cart , ,order",
		mode:        "Weighted",
		prometheus:  ":9191",
		logLevel:    "debug",
		verbose:     true,
	})

	assert.Equal(t, "rest", cfg.Target.Protocol)
	assert.Equal(t, 4, cfg.Run.Actors)
	assert.Equal(t, 2, cfg.Run.Iterations)
	assert.Equal(t, 3, cfg.Run.Concurrency)
	assert.InDelta(t, 3.0, cfg.Run.SpawnRate, 1e-9)
	assert.Equal(t, []string{"cart", "order"}, cfg.Run.Workflows)
	assert.Equal(t, config.ModeWeighted, cfg.Run.Mode)
	assert.Equal(t, ":9191", cfg.Metrics.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Report.Verbose)
}
