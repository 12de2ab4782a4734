package translation

import "context"

// Translator is the contract translation providers implement. Partial results
// are acceptable: a target missing from the returned map means that language
// could not be translated, and callers degrade rather than fail.
type Translator interface {
	TranslateMultiple(ctx context.Context, text string, sourceLanguage string, targetLanguages []string) (map[string]string, error)
}
