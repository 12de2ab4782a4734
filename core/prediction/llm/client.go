package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/duolog-core/core/llms/groq"
	"github.com/koscakluka/duolog-core/core/prediction"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultModel = "llama-3.3-70b-versatile"

const systemPromptTemplate = `You are helping someone who types slowly keep up
with a live conversation. Given the beginning of a phrase, predict the most
likely complete phrases they are trying to type. The phrase is written in %s
and will be spoken to someone who understands %s. Keep each prediction short,
conversational and natural. Assign each prediction a probability between 0
and 1.`

// PredictionClient predicts phrase completions using a structured-output
// LLM prompt.
type PredictionClient struct {
	apiKey string
	model  string
}

type ClientOption func(*PredictionClient)

// WithAPIKey overrides the key taken from the GROQ_API_KEY environment
// variable.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *PredictionClient) {
		c.apiKey = apiKey
	}
}

// WithModel overrides the default prediction model.
func WithModel(model string) ClientOption {
	return func(c *PredictionClient) {
		c.model = model
	}
}

func NewPredictionClient(opts ...ClientOption) *PredictionClient {
	client := PredictionClient{
		apiKey: os.Getenv("GROQ_API_KEY"),
		model:  defaultModel,
	}
	for _, opt := range opts {
		opt(&client)
	}
	return &client
}

type predictedPhrases struct {
	Predictions []struct {
		Phrase      string  `json:"phrase" jsonschema:"description=The complete predicted phrase"`
		Probability float64 `json:"probability" jsonschema:"description=Probability between 0 and 1"`
	} `json:"predictions"`
}

// PhrasePredictions returns up to count likely completions of text, ordered
// from most to least probable.
func (c *PredictionClient) PhrasePredictions(
	ctx context.Context,
	text string,
	sourceLanguage string,
	targetLanguage string,
	count int,
) ([]prediction.Prediction, error) {
	ctx, span := tracer.Start(ctx, "predict phrases")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.model", c.model),
		attribute.String("request.source_language", sourceLanguage),
		attribute.String("request.target_language", targetLanguage),
		attribute.Int("request.count", count),
		attribute.Int("request.text_length", len(text)),
	)

	prompt := fmt.Sprintf("Predict up to %d completions of the phrase: %q", count, text)
	response, err := groq.PromptJSONSchema(ctx, c.apiKey, c.model, prompt,
		fmt.Sprintf(systemPromptTemplate, sourceLanguage, targetLanguage),
		predictedPhrases{},
	)
	if err != nil {
		err = fmt.Errorf("failed to predict phrases: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	predictions := []prediction.Prediction{}
	if err := copier.Copy(&predictions, response.Predictions); err != nil {
		err = fmt.Errorf("failed to copy predictions: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(predictions) > count {
		predictions = predictions[:count]
	}

	span.SetAttributes(attribute.Int("response.predictions", len(predictions)))
	return predictions, nil
}
