package orchestration

import (
	"github.com/koscakluka/duolog-core/core/events"
	"github.com/koscakluka/duolog-core/core/prediction"
)

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts ConverseOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.PlaybackKeyChanged:
			if opts.onPlayingKeyChange != nil {
				opts.onPlayingKeyChange(typedEvent.Key)
			}
		case events.PlaybackWordHighlighted:
			if opts.onWordHighlighted != nil {
				opts.onWordHighlighted(typedEvent.Key, typedEvent.WordIndex)
			}
		case events.PlaybackItemStarted:
			if opts.onItemStarted != nil {
				opts.onItemStarted(typedEvent.Key, typedEvent.Language)
			}
		case events.PlaybackItemEnded:
			if opts.onItemEnded != nil {
				opts.onItemEnded(typedEvent.Key)
			}
		case events.PlaybackQueueFinished:
			if opts.onQueueFinished != nil {
				opts.onQueueFinished(typedEvent.Cancelled)
			}
		case events.CompositionTextChanged:
			if opts.onCompositionText != nil {
				opts.onCompositionText(typedEvent.Role, typedEvent.Text)
			}
		case events.CompositionPredictionsUpdated:
			if opts.onPredictionsUpdated != nil {
				opts.onPredictionsUpdated(typedEvent.Role, toPredictions(typedEvent.Predictions))
			}
		case events.CompositionTranslationsUpdated:
			if opts.onTranslationsUpdated != nil {
				opts.onTranslationsUpdated(typedEvent.Role, typedEvent.Translations)
			}
		case events.CompositionSubmitted:
			if opts.onSubmission != nil {
				opts.onSubmission(typedEvent.Role, typedEvent.SubmissionID, typedEvent.Text)
			}
		case events.ExchangeReplySegment:
			if opts.onReplySegment != nil {
				opts.onReplySegment(typedEvent.Segment)
			}
		case events.ExchangeCompleted:
			if opts.onReplyEnd != nil {
				opts.onReplyEnd(typedEvent.Reply)
			}
		case events.ExchangeFailed:
			if opts.onExchangeFailed != nil {
				opts.onExchangeFailed(typedEvent.Err)
			}
		case events.ListeningTranscriptInterim:
			if opts.onInterimTranscription != nil {
				opts.onInterimTranscription(typedEvent.Role, typedEvent.Transcript)
			}
		case events.ListeningTranscriptFinal:
			if opts.onTranscription != nil {
				opts.onTranscription(typedEvent.Role, typedEvent.Transcript)
			}
		case events.ListeningFailed:
			if opts.onListeningFailed != nil {
				opts.onListeningFailed(typedEvent.Role, typedEvent.Err)
			}
		case events.ListeningStarted:
			if opts.onListeningStarted != nil {
				opts.onListeningStarted(typedEvent.Role)
			}
		case events.ListeningStopped:
			if opts.onListeningStopped != nil {
				opts.onListeningStopped(typedEvent.Role)
			}
		}
	}
}

func toPredictions(phrases []events.PredictedPhrase) []prediction.Prediction {
	predictions := make([]prediction.Prediction, 0, len(phrases))
	for _, phrase := range phrases {
		predictions = append(predictions, prediction.Prediction{
			Phrase:      phrase.Phrase,
			Probability: phrase.Probability,
		})
	}
	return predictions
}
