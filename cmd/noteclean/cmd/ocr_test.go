package cmd

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/noteclean/internal/ocr"
	"github.com/MeKo-Tech/noteclean/internal/testutil"
)

func TestOCRCommand_PrintsText(t *testing.T) {
	isolate(t)
	input := testutil.WriteNotes(t, t.TempDir(), 1)[0]
	factory := &fakeFactory{paragraphs: []string{"First paragraph.", "Second one."}}

	out, _, err := execute(t, []Option{WithEngineFactory(factory)}, "ocr", input)
	require.NoError(t, err)

	assert.Equal(t, "First paragraph.\nSecond one.", strings.TrimSpace(out))
	require.Len(t, factory.calls, 1)
	assert.Equal(t, []string{"en", "pl"}, factory.calls[0])
}

func TestOCRCommand_HelpDescribesOutput(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, nil, "ocr", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "one\nper line")
	assert.NotContains(t, out, "blank lines")
}

func TestOCRCommand_LanguageAndClean(t *testing.T) {
	isolate(t)
	input := testutil.WriteNotes(t, t.TempDir(), 1)[0]
	factory := &fakeFactory{paragraphs: []string{"Zażółć"}}

	out, _, err := execute(t, []Option{WithEngineFactory(factory)},
		"ocr", input, "--lang", "pl", "--clean", "--format", "json")
	require.NoError(t, err)

	var got ocrOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Cleaned)
	assert.Equal(t, []string{"pl"}, got.Languages)
	assert.Equal(t, "Zażółć", got.Text)
	assert.Nil(t, got.Error)
	assert.Equal(t, [][]string{{"pl"}}, factory.calls)
}

func TestOCRCommand_UnsupportedLanguage(t *testing.T) {
	isolate(t)
	input := testutil.WriteNotes(t, t.TempDir(), 1)[0]
	factory := &fakeFactory{}

	out, _, err := execute(t, []Option{WithEngineFactory(factory)},
		"ocr", input, "--lang", "de", "--format", "json")
	require.Error(t, err)

	var failure *ocr.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, ocr.StageLanguages, failure.Stage)
	assert.Empty(t, factory.calls, "no engine is built for a rejected language")

	var got ocrOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.Error)
	assert.Equal(t, ocr.StageLanguages, got.Error.Stage)
}

func TestOCRCommand_LanguageCheckedBeforeImage(t *testing.T) {
	isolate(t)
	corrupt := filepath.Join(t.TempDir(), "corrupt.png")
	testutil.WriteCorruptImage(t, corrupt)

	tests := []struct {
		name string
		lang string
		want error
	}{
		{"empty selection", "", ocr.ErrNoLanguage},
		{"outside the allow-list", "de", ocr.ErrUnsupportedLanguage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := &fakeFactory{}
			_, _, err := execute(t, []Option{WithEngineFactory(factory)}, "ocr", corrupt, "--lang", tt.lang)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.NotContains(t, err.Error(), "decode")
			assert.Empty(t, factory.calls)
		})
	}
}

func TestOCRCommand_ConfiguredAllowList(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	input := testutil.WriteNotes(t, dir, 1)[0]
	cfgFile := filepath.Join(dir, "noteclean.yaml")
	writeFile(t, cfgFile, "ocr:\n  allowed: [en, pl, de]\n  languages: [de]\n")
	factory := &fakeFactory{paragraphs: []string{"Hallo"}}

	out, _, err := execute(t, []Option{WithEngineFactory(factory)}, "--config", cfgFile, "ocr", input)
	require.NoError(t, err)
	assert.Equal(t, "Hallo", strings.TrimSpace(out))
	assert.Equal(t, [][]string{{"de"}}, factory.calls)
}

func TestOCRCommand_BadFormat(t *testing.T) {
	isolate(t)
	input := testutil.WriteNotes(t, t.TempDir(), 1)[0]

	_, _, err := execute(t, []Option{WithEngineFactory(&fakeFactory{})}, "ocr", input, "--format", "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestOCRCommand_MissingImage(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, []Option{WithEngineFactory(&fakeFactory{})}, "ocr", filepath.Join(t.TempDir(), "none.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading")
}
