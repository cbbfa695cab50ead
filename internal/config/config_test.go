package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocorr/domain/correlation"
	"gocorr/domain/dataset"
	apperrors "gocorr/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gocorr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	opts, err := cfg.Options()
	require.NoError(t, err)
	def := correlation.DefaultOptions()
	assert.Equal(t, def.Method, opts.Method)
	assert.Equal(t, def.PAdjust, opts.PAdjust)
	assert.Equal(t, def.CI, opts.CI)
	assert.Equal(t, def.Tuning, opts.Tuning)
	assert.Equal(t, def.Seed, opts.Seed)
	assert.Equal(t, "table", cfg.Output.Format)
	assert.Equal(t, 50, cfg.Data.Coercion.MaxCategories)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
analysis:
  method: spearman
  p_adjust: fdr
  ci: 0.9
  group_by: [site]
  tuning:
    trim: 0.1
data:
  types:
    grade: ordinal
output:
  format: markdown
`)
	t.Setenv("GOCORR_ANALYSIS_SEED", "7")
	t.Setenv("GOCORR_OUTPUT_DIGITS", "4")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	opts, err := cfg.Options()
	require.NoError(t, err)

	assert.Equal(t, correlation.MethodSpearman, opts.Method)
	assert.Equal(t, correlation.AdjustBH, opts.PAdjust)
	assert.Equal(t, 0.9, opts.CI)
	assert.Equal(t, []string{"site"}, opts.GroupBy)
	assert.Equal(t, 0.1, opts.Tuning.Trim)
	assert.Equal(t, 0.2, opts.Tuning.Beta)
	assert.Equal(t, uint64(7), opts.Seed)
	assert.Equal(t, 4, cfg.Output.Digits)

	types, err := cfg.ColumnTypes()
	require.NoError(t, err)
	assert.Equal(t, map[string]dataset.ColumnType{"grade": dataset.TypeOrdinal}, types)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"method":      "analysis:\n  method: pearsonish\n",
		"ci":          "analysis:\n  ci: 1.5\n",
		"format":      "output:\n  format: pdf\n",
		"value":       "output:\n  value: median\n",
		"unsupported": "analysis:\n  method: kendall\n  bayesian: true\n",
		"zero order":  "output:\n  value: zero_order\n",
		"covariates":  "analysis:\n  multilevel: true\n  covariates: [V3]\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(New(), writeConfig(t, body))
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
		})
	}

	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}
