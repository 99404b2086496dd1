// Package draft holds the video draft candidates proposed by the LLM and the
// repair logic that turns their raw configuration strings into validated
// render job configurations.
package draft

// Element is a single media element inside a scene or at the movie level.
// Type is one of video, audio, image, voice, text.
type Element struct {
	Type     string  `json:"type"`
	Src      string  `json:"src,omitempty"`
	Text     string  `json:"text,omitempty"`
	Voice    string  `json:"voice,omitempty"`
	Volume   float64 `json:"volume,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Muted    bool    `json:"muted,omitempty"`
	ZoomTo   float64 `json:"zoom,omitempty"`
}

// Scene is an ordered group of elements rendered together.
type Scene struct {
	Comment  string    `json:"comment,omitempty"`
	Elements []Element `json:"elements"`
}

// RenderJobConfig is the parsed, scene-structured configuration submitted to
// the render service. Elements at the top level are global tracks (background
// audio, voice-over) that span the whole movie.
type RenderJobConfig struct {
	Comment    string    `json:"comment,omitempty"`
	Resolution string    `json:"resolution,omitempty"`
	Quality    string    `json:"quality,omitempty"`
	Draft      bool      `json:"draft,omitempty"`
	FPS        int       `json:"fps,omitempty"`
	Scenes     []Scene   `json:"scenes"`
	Elements   []Element `json:"elements,omitempty"`
}

// IsEmpty reports whether the config is unusable: no scenes means there is
// nothing to render, which is how a failed repair presents to the orchestrator.
func (c RenderJobConfig) IsEmpty() bool {
	return len(c.Scenes) == 0
}

// validate enforces the parse-boundary shape contract: at least one scene,
// and every scene carries at least one element.
func (c RenderJobConfig) validate() error {
	if len(c.Scenes) == 0 {
		return errNoScenes
	}
	for i, scene := range c.Scenes {
		if len(scene.Elements) == 0 {
			return sceneWithoutElementsError(i)
		}
	}
	return nil
}

// Candidate is one LLM-proposed video draft competing to be rendered and
// posted. RawConfig is the configuration string exactly as the model emitted
// it, possibly malformed.
type Candidate struct {
	Title     string `json:"title"`
	Strategy  string `json:"video_strategy"`
	Caption   string `json:"video_caption"`
	RawConfig string `json:"json2video_config_str"`
}

// Config parses and repairs the candidate's raw configuration. The result is
// empty (never an error) when the text cannot be salvaged.
func (c Candidate) Config() RenderJobConfig {
	return Parse(c.RawConfig, c.Title)
}

// List is the draft-generator output shape: a batch of candidates produced by
// one prompt.
type List struct {
	Videos []Candidate `json:"videos"`
}
