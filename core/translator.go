package orchestration

import (
	"context"

	"github.com/koscakluka/duolog-core/core/translation"
)

// translator wraps a role's optional translation client. Translation is
// best-effort everywhere in the core: an unconfigured facade and a failing
// provider both degrade to an empty result, never blocking submission or
// playback.
type translator struct {
	client translation.Translator
}

func newTranslator(client translation.Translator) *translator {
	t := translator{}
	t.set(client)
	return &t
}

func (t *translator) set(client translation.Translator) {
	if t == nil {
		return
	}

	if isNilClient(client) {
		t.client = nil
		return
	}
	t.client = client
}

func (t *translator) isConfigured() bool {
	return t != nil && t.client != nil
}

// Translate fetches translations of text into targets. Failures degrade to
// whatever subset succeeded; the map is keyed by language.
func (t *translator) Translate(ctx context.Context, text string, source Language, targets []Language) map[Language]string {
	if !t.isConfigured() || text == "" || len(targets) == 0 {
		return map[Language]string{}
	}

	targetCodes := make([]string, 0, len(targets))
	for _, target := range targets {
		targetCodes = append(targetCodes, target.String())
	}

	translated, err := t.client.TranslateMultiple(ctx, text, source.String(), targetCodes)
	if err != nil {
		logger.Warn("Translation degraded", "source", source.String(), "error", err)
	}

	translations := make(map[Language]string, len(translated))
	for code, text := range translated {
		translations[Language(code)] = text
	}
	return translations
}
