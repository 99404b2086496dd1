package draft

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/autopotter/autopotter/internal/utils"
)

var errNoScenes = fmt.Errorf("config has no scenes")

type sceneWithoutElementsError int

func (e sceneWithoutElementsError) Error() string {
	return fmt.Sprintf("scene %d has no elements", int(e))
}

// controlChars matches the C0 and C1 control ranges. LLM output sometimes
// carries raw control bytes inside string values, which encoding/json rejects.
var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)

// repairStrategy is one fixup attempt. Ordering matters: later strategies are
// lossy and can silently corrupt a technically valid but unusual payload, so
// the cheap, safe ones run first.
type repairStrategy struct {
	name  string
	apply func(string) string
}

var repairStrategies = []repairStrategy{
	{"direct parsing", func(s string) string { return s }},
	{"control character removal", func(s string) string {
		return controlChars.ReplaceAllString(s, "")
	}},
	{"JSON extraction", extractJSONObject},
	{"escaped character fixing", func(s string) string {
		return strings.ReplaceAll(strings.ReplaceAll(s, `\"`, `"`), `\n`, "\n")
	}},
}

// extractJSONObject slices the text from its first '{' to its last '}',
// dropping any leading or trailing prose around the object.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return s
	}
	return s[start : end+1]
}

// Parse repairs a raw configuration string into a RenderJobConfig, trying
// successively more aggressive fixups and returning on the first result that
// both parses and validates. It never fails: unsalvageable input yields the
// empty config, which the orchestrator treats as an unusable candidate rather
// than a fatal error. The label appears in log output for diagnosis.
func Parse(raw, label string) RenderJobConfig {
	utils.LogDebug("Parsing render config for %q (%d characters)", label, len(raw))

	if raw == "" {
		utils.LogError("No config string provided for %q", label)
		return RenderJobConfig{}
	}

	for _, strategy := range repairStrategies {
		var cfg RenderJobConfig
		if err := json.Unmarshal([]byte(strategy.apply(raw)), &cfg); err != nil {
			utils.LogDebug("Strategy %q failed for %q: %v", strategy.name, label, err)
			continue
		}
		if err := cfg.validate(); err != nil {
			utils.LogDebug("Strategy %q produced invalid config for %q: %v", strategy.name, label, err)
			continue
		}
		if strategy.name == "direct parsing" {
			utils.LogVerbose("Parsed render config for %q", label)
		} else {
			utils.LogInfo("Parsed render config for %q using %s", label, strategy.name)
		}
		return cfg
	}

	utils.LogError("Failed to parse render config for %q: all repair strategies failed", label)
	return RenderJobConfig{}
}
