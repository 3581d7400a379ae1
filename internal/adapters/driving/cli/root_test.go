package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "clausesense", rootCmd.Use)
	assert.Equal(t, "Contract clause indexing and risk review", rootCmd.Short)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{
		"ingest", "search", "report", "ask", "document", "vendors", "playbooks",
		"reindex", "stats", "serve", "mcp", "watch", "settings", "version",
	} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config-dir"))
}

func TestBootstrap_RunsOnceWithFlags(t *testing.T) {
	SetServices(nil)
	defer SetServices(nil)

	var got []Options
	ts, _ := setupTestServices()
	SetServices(nil)
	SetBootstrap(func(_ context.Context, opts Options) (*Services, error) {
		got = append(got, opts)
		return &Services{Index: ts.index}, nil
	})
	defer SetBootstrap(nil)

	out, err := runCLI(t, "stats", "--config-dir", "/tmp/cs", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "Clauses: 14")
	require.Len(t, got, 1)
	assert.Equal(t, Options{ConfigDir: "/tmp/cs", Verbose: true}, got[0])

	_, err = runCLI(t, "stats")
	require.NoError(t, err)
	assert.Len(t, got, 1, "services are reused once built")
}

func TestBootstrap_Error(t *testing.T) {
	SetServices(nil)
	SetBootstrap(func(context.Context, Options) (*Services, error) {
		return nil, errors.New("opening database: locked")
	})
	defer SetBootstrap(nil)

	_, err := runCLI(t, "stats")
	assert.ErrorContains(t, err, "database: locked")
}

func TestExecute_ClosesServices(t *testing.T) {
	closed := false
	SetServices(&Services{Close: func() error {
		closed = true
		return nil
	}})
	defer SetServices(nil)

	resetFlags(rootCmd)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, Execute())
	assert.True(t, closed)
}
