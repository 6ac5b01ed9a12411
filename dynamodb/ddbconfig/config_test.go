package ddbconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/acksell/carpenter/dynamodb/ddberr"
	"github.com/acksell/carpenter/dynamodb/schema"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(flagSet(t))
	require.NoError(t, err)
	assert.Equal(t, Config{
		Region:          DefaultRegion,
		AccessKeyID:     DefaultAccessKeyID,
		SecretAccessKey: DefaultSecretAccessKey,
		MaxAttempts:     DefaultMaxAttempts,
		Port:            DefaultPort,
		Naming:          schema.DefaultNaming(),
		Throughput:      schema.DefaultThroughput,
	}, cfg)
	assert.Equal(t, "http://localhost:8000", cfg.EndpointURL())
	assert.False(t, cfg.Embedded())
}

func TestLoad_NilFlags(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, `
port: 7000
region: eu-north-1
max-attempts: 2
naming:
  gsi-prefix: G
throughput:
  read: 11
`)

	t.Run("file over defaults", func(t *testing.T) {
		cfg, err := Load(flagSet(t))
		require.NoError(t, err)
		assert.Equal(t, 7000, cfg.Port)
		assert.Equal(t, "eu-north-1", cfg.Region)
		assert.Equal(t, 2, cfg.MaxAttempts)
		assert.Equal(t, "G", cfg.Naming.GSIPrefix)
		assert.Equal(t, "LSI", cfg.Naming.LSIPrefix)
		assert.Equal(t, int64(11), cfg.Throughput.ReadCapacityUnits)
		assert.Equal(t, schema.DefaultThroughput.WriteCapacityUnits, cfg.Throughput.WriteCapacityUnits)
		assert.Equal(t, filepath.Join(dir, FileName), cfg.File)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("CARPENTER_PORT", "7100")
		t.Setenv("CARPENTER_NAMING_LSI_PREFIX", "L")
		cfg, err := Load(flagSet(t))
		require.NoError(t, err)
		assert.Equal(t, 7100, cfg.Port)
		assert.Equal(t, "L", cfg.Naming.LSIPrefix)
		assert.Equal(t, "eu-north-1", cfg.Region)
	})

	t.Run("flag over env", func(t *testing.T) {
		t.Setenv("CARPENTER_PORT", "7100")
		cfg, err := Load(flagSet(t, "--port=7200", "--memory"))
		require.NoError(t, err)
		assert.Equal(t, 7200, cfg.Port)
		assert.True(t, cfg.Embedded())
	})
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	other := t.TempDir()
	path := writeFile(t, other, "endpoint: http://ddb.internal:4566\n")

	cfg, err := Load(flagSet(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "http://ddb.internal:4566", cfg.EndpointURL())
	assert.Equal(t, path, cfg.File)

	_, err = Load(flagSet(t, "--config", filepath.Join(other, "missing.yaml")))
	assert.ErrorIs(t, err, ddberr.InvalidArgument)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(flagSet(t, "--port=70000"))
	require.ErrorIs(t, err, ddberr.InvalidArgument)
	assert.Contains(t, err.Error(), "Port")

	_, err = Load(flagSet(t, "--max-attempts=0", "--endpoint=::bad"))
	require.ErrorIs(t, err, ddberr.InvalidArgument)
	assert.Contains(t, err.Error(), "MaxAttempts")
	assert.Contains(t, err.Error(), "Endpoint")

	t.Setenv("CARPENTER_REGION", "")
	t.Setenv("CARPENTER_ACCESS_KEY_ID", "")
	_, err = Load(nil)
	require.NoError(t, err, "empty env values fall back to defaults")
}

func TestFindFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Empty(t, FindFile(nested))

	path := writeFile(t, filepath.Join(root, "a"), "port: 9000\n")
	assert.Equal(t, path, FindFile(nested))
	assert.Equal(t, path, FindFile(filepath.Join(root, "a")))
	assert.Empty(t, FindFile(root))
}
