package generator

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"resgen/internal/resource"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	inputPath = "texts/resources.json"
	outDir    = "src/resources"
)

func setup(t *testing.T, input string) (afero.Fs, *Generator) {
	t.Helper()
	fs := afero.NewMemMapFs()
	if input != "" {
		require.NoError(t, afero.WriteFile(fs, inputPath, []byte(input), 0644))
	}
	return fs, New(fs, inputPath, outDir, zap.NewNop())
}

func listOutput(t *testing.T, fs afero.Fs) []string {
	t.Helper()
	exists, err := afero.DirExists(fs, outDir)
	require.NoError(t, err)
	if !exists {
		return nil
	}
	infos, err := afero.ReadDir(fs, outDir)
	require.NoError(t, err)
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names
}

func readBundle(t *testing.T, fs afero.Fs, lang string) resource.Bundle {
	t.Helper()
	data, err := afero.ReadFile(fs, filepath.Join(outDir, "resource."+lang+".json"))
	require.NoError(t, err)
	var b resource.Bundle
	require.NoError(t, json.Unmarshal(data, &b))
	return b
}

func TestRun_EmptyArray(t *testing.T) {
	fs, gen := setup(t, `[]`)

	res, err := gen.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Files)
	assert.Empty(t, listOutput(t, fs))
}

func TestRun_TwoLanguages(t *testing.T) {
	fs, gen := setup(t, `[{"id": "a", "values": {"nb": "Hei", "en": "Hi"}}]`)

	res, err := gen.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"nb", "en"}, res.Languages)
	assert.Equal(t, 1, res.Records)
	assert.NotEmpty(t, res.RunID)
	assert.ElementsMatch(t, []string{"resource.nb.json", "resource.en.json"}, listOutput(t, fs))

	want := map[string]resource.Bundle{
		"nb": {Language: "nb", Resources: []resource.Entry{{ID: "a", Value: "Hei"}}},
		"en": {Language: "en", Resources: []resource.Entry{{ID: "a", Value: "Hi"}}},
	}
	for lang, w := range want {
		if diff := cmp.Diff(w, readBundle(t, fs, lang)); diff != "" {
			t.Errorf("bundle %s mismatch (-want +got):\n%s", lang, diff)
		}
	}
}

func TestRun_DuplicateIDs(t *testing.T) {
	fs, gen := setup(t, `[{"id": "a", "values": {"nb": "X"}}, {"id": "a", "values": {"nb": "Y"}}]`)

	_, err := gen.Run(context.Background())
	require.NoError(t, err)

	got := readBundle(t, fs, "nb")
	assert.Equal(t, []resource.Entry{{ID: "a", Value: "X"}, {ID: "a", Value: "Y"}}, got.Resources)
}

func TestRun_MissingIDContributesNothing(t *testing.T) {
	fs, gen := setup(t, `[{"values": {"nb": "Z"}}, {"id": "b", "values": {"en": "B"}}]`)

	res, err := gen.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"resource.en.json"}, listOutput(t, fs))
}

func TestRun_ObjectTopLevel(t *testing.T) {
	fs, gen := setup(t, `{"id": "a", "values": {"nb": "Hei"}}`)

	res, err := gen.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrMalformedTopLevel), "got %v", err)
	assert.Empty(t, listOutput(t, fs))
}

func TestRun_MissingInput(t *testing.T) {
	fs, gen := setup(t, "")

	_, err := gen.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingInput), "got %v", err)
	assert.Contains(t, err.Error(), inputPath)
	assert.Empty(t, listOutput(t, fs))
}

func TestRun_Idempotent(t *testing.T) {
	fs, gen := setup(t, `[
		{"id": "title", "values": {"nb": "Skjema", "en": "Form"}},
		{"id": "html", "values": {"nb": "<b>Viktig</b> & mer", "en": {"a": 1, "b": [1, 2]}}}
	]`)

	_, err := gen.Run(context.Background())
	require.NoError(t, err)
	first := map[string][]byte{}
	for _, name := range listOutput(t, fs) {
		data, err := afero.ReadFile(fs, filepath.Join(outDir, name))
		require.NoError(t, err)
		first[name] = data
	}

	_, err = gen.Run(context.Background())
	require.NoError(t, err)
	for name, want := range first {
		got, err := afero.ReadFile(fs, filepath.Join(outDir, name))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), name)
	}
	assert.Contains(t, string(first["resource.nb.json"]), "<b>Viktig</b> & mer")
}

func TestRun_WriteFailurePropagates(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, inputPath, []byte(`[{"id": "a", "values": {"nb": "Hei"}}]`), 0644))
	gen := New(afero.NewReadOnlyFs(base), inputPath, outDir, zap.NewNop())

	_, err := gen.Run(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingInput))
	assert.False(t, errors.Is(err, ErrMalformedTopLevel))
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	fs, gen := setup(t, `[{"id": "a", "values": {"nb": "Hei"}}]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, listOutput(t, fs))
}

func TestRun_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, inputPath, []byte(`[{"values": {}}, {"id": "a", "values": {"nb": "Hei", "../x": "no"}}]`), 0644))
	gen := New(fs, inputPath, outDir, zap.New(core))

	res, err := gen.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"../x"}, res.Rejected)

	assert.Equal(t, 1, logs.FilterMessage("Skipped malformed records").Len())
	assert.Equal(t, 1, logs.FilterMessage("Skipped language with unusable code").Len())
	done := logs.FilterMessage("Generated resource bundles").All()
	require.Len(t, done, 1)
	assert.Equal(t, res.RunID, done[0].ContextMap()["run_id"])
}

func TestAccessors(t *testing.T) {
	_, gen := setup(t, "")
	assert.Equal(t, inputPath, gen.Input())
	assert.Equal(t, outDir, gen.OutputDir())
}
