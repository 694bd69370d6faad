package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatmaplib/assetstore/cmd/assetstore/commands"
	"github.com/beatmaplib/assetstore/pkg/config"
)

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	root := commands.GetRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := commands.GetRootCmd()
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"version", "init", "migrate", "status", "import", "gc", "schema"} {
		assert.True(t, names[want], "expected %q subcommand to be registered", want)
	}
}

func TestSchemaPrintsJSONSchema(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "config.schema.json")

	require.NoError(t, runCLI(t, "schema", "--output", outPath))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"$schema"`)
	assert.Contains(t, string(data), "Asset Store Configuration")
}

func TestInitThenMigrateThenStatus(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	dataRoot := filepath.Join(dir, "data")

	require.NoError(t, runCLI(t, "init", "--config", configPath))
	_, err := os.Stat(configPath)
	require.NoError(t, err)

	// Point storage at an isolated temp directory instead of the default
	// XDG location before running the commands that actually open it.
	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	cfg.Storage.Root = dataRoot
	require.NoError(t, config.SaveConfig(cfg, configPath))

	require.NoError(t, runCLI(t, "migrate", "--config", configPath))
	require.NoError(t, runCLI(t, "status", "--config", configPath, "--output", "json"))
}

func TestInitRefusesToOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	require.NoError(t, runCLI(t, "init", "--config", configPath))
	assert.Error(t, runCLI(t, "init", "--config", configPath))
	assert.NoError(t, runCLI(t, "init", "--config", configPath, "--force"))
}

func TestVersionCommandRuns(t *testing.T) {
	assert.NoError(t, runCLI(t, "version"))
}
