package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/524D/mzdigest/internal/ms"
	"github.com/524D/mzdigest/internal/protease"
)

func TestDefaults(t *testing.T) {
	env, err := LoadFromEnv()
	require.NoError(t, err)
	cfg, err := env.ToAppConfig()
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.LogLevel())
	assert.Equal(t, "pretty", cfg.LogFormat())
	assert.Equal(t, 4, cfg.Workers())
	assert.Equal(t, "trypsin", cfg.DefaultProtease())
	assert.Empty(t, cfg.ProteaseFile())
	assert.Empty(t, cfg.ModificationFile())

	par := cfg.DigestionParams()
	assert.Equal(t, 2, par.MaxMissedCleavages)
	require.NotNil(t, par.MinLength)
	assert.Equal(t, 7, *par.MinLength)
	assert.Nil(t, par.MaxLength)
	assert.Equal(t, protease.Variable, par.InitiatorMethionine)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MZDIGEST_LOG_LEVEL", "debug")
	t.Setenv("MZDIGEST_LOG_FORMAT", "json")
	t.Setenv("MZDIGEST_WORKERS", "12")
	t.Setenv("MZDIGEST_DEFAULT_PROTEASE", "Lys-C")
	t.Setenv("MZDIGEST_MAX_MISSED_CLEAVAGES", "0")
	t.Setenv("MZDIGEST_MIN_PEPTIDE_LENGTH", "1")
	t.Setenv("MZDIGEST_MAX_PEPTIDE_LENGTH", "30")
	t.Setenv("MZDIGEST_INITIATOR_METHIONINE", "Cleave")

	env, err := LoadFromEnv()
	require.NoError(t, err)
	cfg, err := env.ToAppConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel())
	assert.Equal(t, "json", cfg.LogFormat())
	assert.Equal(t, 12, cfg.Workers())
	assert.Equal(t, "Lys-C", cfg.DefaultProtease())
	par := cfg.DigestionParams()
	assert.Equal(t, 0, par.MaxMissedCleavages)
	assert.Equal(t, 1, *par.MinLength)
	require.NotNil(t, par.MaxLength)
	assert.Equal(t, 30, *par.MaxLength)
	assert.Equal(t, protease.Cleave, par.InitiatorMethionine)
}

func TestLoadFromEnvInvalid(t *testing.T) {
	t.Setenv("MZDIGEST_WORKERS", "many")
	_, err := LoadFromEnv()
	assert.Error(t, err)

	t.Setenv("MZDIGEST_WORKERS", "4")
	t.Setenv("MZDIGEST_INITIATOR_METHIONINE", "sometimes")
	env, err := LoadFromEnv()
	require.NoError(t, err)
	_, err = env.ToAppConfig()
	assert.Error(t, err)

	t.Setenv("MZDIGEST_INITIATOR_METHIONINE", "retain")
	for _, v := range []string{"MZDIGEST_MAX_MISSED_CLEAVAGES", "MZDIGEST_MIN_PEPTIDE_LENGTH", "MZDIGEST_MAX_PEPTIDE_LENGTH"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv(v, "-1")
			env, err := LoadFromEnv()
			require.NoError(t, err)
			_, err = env.ToAppConfig()
			assert.ErrorIs(t, err, protease.ErrInvalidDigestionParams)
		})
	}
}

func TestAppConfigImmutable(t *testing.T) {
	a := NewAppConfig()
	b := a.WithWorkers(1).WithLogFormat("json")
	assert.Equal(t, 4, a.Workers())
	assert.Equal(t, "pretty", a.LogFormat())
	assert.Equal(t, 1, b.Workers())
	assert.Equal(t, "json", b.LogFormat())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MZDIGEST_WORKERS=7\nMZDIGEST_DEFAULT_PROTEASE=chymotrypsin\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("MZDIGEST_WORKERS")
		os.Unsetenv("MZDIGEST_DEFAULT_PROTEASE")
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers())
	assert.Equal(t, "chymotrypsin", cfg.DefaultProtease())

	// a missing file is skipped
	_, err = LoadConfig(filepath.Join(dir, "missing.env"))
	assert.NoError(t, err)
}

const proteaseYAML = `proteases:
  - name: Glu-C
    specificity: full
    inducing:
      - motif: E
        terminus: C
    psi_ms_accession: "MS:1001917"
  - name: trypsin
    specificity: semi
    inducing:
      - motif: K
        terminus: C
`

const proteaseTOML = `[[proteases]]
name = "Glu-C"
specificity = "full"
psi_ms_accession = "MS:1001917"

[[proteases.inducing]]
motif = "E"
terminus = "C"
`

func TestLoadProteases(t *testing.T) {
	reg, err := LoadProteases("")
	require.NoError(t, err)
	_, err = reg.Lookup("glu-c")
	assert.ErrorIs(t, err, protease.ErrUnknownProtease)

	dir := t.TempDir()
	yml := filepath.Join(dir, "proteases.yaml")
	require.NoError(t, os.WriteFile(yml, []byte(proteaseYAML), 0o600))
	reg, err = LoadProteases(yml)
	require.NoError(t, err)
	gluc, err := reg.Lookup("Glu-C")
	require.NoError(t, err)
	assert.Equal(t, []protease.CleavageRule{{Motif: "E", Terminus: ms.C}}, gluc.SequencesInducingCleavage)
	assert.Equal(t, "MS:1001917", gluc.PsiMsAccession)
	tryp, err := reg.Lookup("trypsin")
	require.NoError(t, err)
	assert.Equal(t, protease.Semi, tryp.Specificity)
	_, err = reg.Lookup("Lys-C")
	assert.NoError(t, err)

	tml := filepath.Join(dir, "proteases.toml")
	require.NoError(t, os.WriteFile(tml, []byte(proteaseTOML), 0o600))
	reg, err = LoadProteases(tml)
	require.NoError(t, err)
	gluc, err = reg.Lookup("glu-c")
	require.NoError(t, err)
	assert.Equal(t, protease.Full, gluc.Specificity)
	assert.Equal(t, []int{0, 3, 6}, gluc.DigestionSites("AAEAAE"))

	bad := filepath.Join(dir, "proteases.json")
	require.NoError(t, os.WriteFile(bad, []byte("{}"), 0o600))
	_, err = LoadProteases(bad)
	assert.ErrorIs(t, err, ErrDefinitionFormat)

	_, err = LoadProteases(filepath.Join(dir, "none.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

const modificationTOML = `[[modifications]]
id = "Methyl"
type = "Common"
target = "K"
formula = "C1H2"

[[modifications]]
id = "phospho"
type = "CommonBiological"
formula = "H1O3P1"

[modifications.neutral_losses]
HCD = [0.0, 97.97689557339]
`

func TestLoadModifications(t *testing.T) {
	mods, err := LoadModifications("")
	require.NoError(t, err)
	assert.NotEmpty(t, mods)

	path := filepath.Join(t.TempDir(), "mods.toml")
	require.NoError(t, os.WriteFile(path, []byte(modificationTOML), 0o600))
	mods, err = LoadModifications(path)
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, "Common:Methyl", mods[0].Tag())
	assert.Equal(t, 14.015650064, mods[0].MonoisotopicMass)
	assert.Equal(t, []float64{0, 97.97689557339}, mods[1].NeutralLossesFor(ms.HCD))

	bad := filepath.Join(t.TempDir(), "mods.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("modifications:\n  - id: x\n    type: T\n"), 0o600))
	_, err = LoadModifications(bad)
	assert.Error(t, err)
}
