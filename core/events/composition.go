package events

const (
	// KindCompositionTextChanged identifies compose-buffer changes.
	KindCompositionTextChanged Kind = "composition.text_changed"
	// KindCompositionPredictionsUpdated identifies replaced phrase predictions.
	KindCompositionPredictionsUpdated Kind = "composition.predictions_updated"
	// KindCompositionTranslationsUpdated identifies replaced draft translations.
	KindCompositionTranslationsUpdated Kind = "composition.translations_updated"
	// KindCompositionSubmitted identifies a submitted compose buffer.
	KindCompositionSubmitted Kind = "composition.submitted"
)

// CompositionTextChanged carries a role's current compose buffer.
type CompositionTextChanged struct {
	Base
	Role string
	Text string
}

// NewCompositionTextChanged creates a composition text changed event.
func NewCompositionTextChanged(role, text string) CompositionTextChanged {
	return CompositionTextChanged{Base: NewBase(KindCompositionTextChanged), Role: role, Text: text}
}

// PredictedPhrase is one phrase prediction as carried by events.
type PredictedPhrase struct {
	Phrase      string
	Probability float64
}

// CompositionPredictionsUpdated carries the full replacement set of phrase
// predictions for a role's current draft.
type CompositionPredictionsUpdated struct {
	Base
	Role        string
	Predictions []PredictedPhrase
}

// NewCompositionPredictionsUpdated creates a composition predictions updated event.
func NewCompositionPredictionsUpdated(role string, predictions []PredictedPhrase) CompositionPredictionsUpdated {
	return CompositionPredictionsUpdated{Base: NewBase(KindCompositionPredictionsUpdated), Role: role, Predictions: predictions}
}

// CompositionTranslationsUpdated carries the full replacement set of draft
// translations, keyed by language code.
type CompositionTranslationsUpdated struct {
	Base
	Role         string
	Translations map[string]string
}

// NewCompositionTranslationsUpdated creates a composition translations updated event.
func NewCompositionTranslationsUpdated(role string, translations map[string]string) CompositionTranslationsUpdated {
	return CompositionTranslationsUpdated{Base: NewBase(KindCompositionTranslationsUpdated), Role: role, Translations: translations}
}

// CompositionSubmitted marks a submitted compose buffer.
type CompositionSubmitted struct {
	Base
	Role         string
	SubmissionID string
	Text         string
}

// NewCompositionSubmitted creates a composition submitted event.
func NewCompositionSubmitted(role, submissionID, text string) CompositionSubmitted {
	return CompositionSubmitted{Base: NewBase(KindCompositionSubmitted), Role: role, SubmissionID: submissionID, Text: text}
}
