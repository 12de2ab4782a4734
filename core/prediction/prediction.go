package prediction

import "context"

// Prediction is a single candidate phrase the speaker might be trying to
// type, with the model's confidence in it.
type Prediction struct {
	Phrase      string
	Probability float64
}

// PhrasePredictor produces candidate continuations for a partially typed
// phrase.
//
// Implementations are expected to return the predictions ordered from most
// to least probable. An empty slice is a valid result.
type PhrasePredictor interface {
	PhrasePredictions(ctx context.Context, text string, sourceLanguage string, targetLanguage string, count int) ([]Prediction, error)
}
