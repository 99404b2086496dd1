package draft

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanConfig = `{
	"resolution": "full-hd",
	"quality": "high",
	"scenes": [
		{"comment": "intro", "elements": [{"type": "video", "src": "https://cdn.example.com/a.mp4"}]},
		{"elements": [{"type": "image", "src": "https://cdn.example.com/b.jpg", "duration": 3}]}
	],
	"elements": [{"type": "audio", "src": "https://cdn.example.com/track.mp3", "volume": 0.2}]
}`

func TestParseCleanJSONIsUnchanged(t *testing.T) {
	cfg := Parse(cleanConfig, "clean")

	require.False(t, cfg.IsEmpty())
	assert.Equal(t, "full-hd", cfg.Resolution)
	assert.Len(t, cfg.Scenes, 2)
	assert.Equal(t, "intro", cfg.Scenes[0].Comment)
	assert.Len(t, cfg.Elements, 1)
	assert.Equal(t, 0.2, cfg.Elements[0].Volume)

	// Round-tripping the clean input must produce the identical structure:
	// strategy 1 wins and nothing gets rewritten.
	var direct RenderJobConfig
	require.NoError(t, json.Unmarshal([]byte(cleanConfig), &direct))
	assert.Equal(t, direct, cfg)
}

func TestParseStripsControlCharacters(t *testing.T) {
	dirty := "{\"scenes\": [{\"elements\": [{\"type\": \"video\", \"src\": \"https://e.com/a\x01.mp4\"}]}]}"

	cfg := Parse(dirty, "control chars")
	require.False(t, cfg.IsEmpty())
	assert.Equal(t, "https://e.com/a.mp4", cfg.Scenes[0].Elements[0].Src)
}

func TestParseExtractsObjectFromProse(t *testing.T) {
	wrapped := `here is your config: {"scenes": [{"elements": [{"type": "video", "src": "x"}]}]} hope it helps!`

	cfg := Parse(wrapped, "prose wrapped")
	require.False(t, cfg.IsEmpty())
	assert.Equal(t, "video", cfg.Scenes[0].Elements[0].Type)
}

func TestParseFixesOverEscapedPayload(t *testing.T) {
	escaped := `{\"scenes\": [{\"elements\": [{\"type\": \"voice\", \"text\": \"hello\"}]}]}`

	cfg := Parse(escaped, "over escaped")
	require.False(t, cfg.IsEmpty())
	assert.Equal(t, "hello", cfg.Scenes[0].Elements[0].Text)
}

func TestParseNeverFails(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty string", ""},
		{"pure prose", "sorry, I cannot generate that"},
		{"truncated object", `{"scenes": [{"elements": [`},
		{"array not object", `[1, 2, 3]`},
		{"valid JSON without scenes", `{"resolution": "full-hd"}`},
		{"scene without elements", `{"scenes": [{"comment": "empty"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Parse(tt.raw, tt.name)
			assert.True(t, cfg.IsEmpty())
		})
	}
}

func TestCandidateConfig(t *testing.T) {
	good := Candidate{Title: "t", Caption: "c", RawConfig: cleanConfig}
	assert.False(t, good.Config().IsEmpty())

	bad := Candidate{Title: "t", Caption: "c", RawConfig: "not json"}
	assert.True(t, bad.Config().IsEmpty())
}
