package orchestration

import (
	"context"

	"github.com/koscakluka/duolog-core/core/prediction"
)

const defaultPredictionCount = 3

// predictor wraps a role's optional phrase-prediction client. Like
// translation, prediction is best-effort: failures and an unconfigured
// facade both degrade to no predictions.
type predictor struct {
	client prediction.PhrasePredictor
	count  int
}

func newPredictor(client prediction.PhrasePredictor) *predictor {
	p := predictor{count: defaultPredictionCount}
	p.set(client)
	return &p
}

func (p *predictor) set(client prediction.PhrasePredictor) {
	if p == nil {
		return
	}

	if isNilClient(client) {
		p.client = nil
		return
	}
	p.client = client
}

func (p *predictor) setCount(count int) {
	if p == nil || count <= 0 {
		return
	}

	p.count = count
}

func (p *predictor) isConfigured() bool {
	return p != nil && p.client != nil
}

// Predict fetches likely completions of text. Failures degrade to an empty
// slice.
func (p *predictor) Predict(ctx context.Context, text string, source, target Language) []prediction.Prediction {
	if !p.isConfigured() || text == "" {
		return nil
	}

	predictions, err := p.client.PhrasePredictions(ctx, text, source.String(), target.String(), p.count)
	if err != nil {
		logger.Warn("Phrase prediction degraded", "error", err)
		return nil
	}

	return predictions
}
