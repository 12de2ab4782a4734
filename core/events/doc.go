// Package events defines the typed conversation-simulator event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - playback.*
//   - composition.*
//   - exchange.*
//   - listening.*
//
// Semantics used across the package:
//
//   - Key: stable identifier of the visual element a performance animates.
//   - Segment: append-only text piece emitted in stream order.
//   - Final: terminal immutable text/state for the current stream.
//   - Role: which conversational side produced the event ("user" or
//     "assistant").
//
// playback events
//
//   - PlaybackKeyChanged (playback.key_changed): the active performance key
//     changed; an empty key means nothing is being performed.
//   - PlaybackWordHighlighted (playback.word_highlighted): the emphasized
//     word index advanced for the active key.
//   - PlaybackItemStarted (playback.item_started): one queue item began
//     performing.
//   - PlaybackItemEnded (playback.item_ended): one queue item finished or
//     was skipped.
//   - PlaybackQueueFinished (playback.queue_finished): a whole queue settled,
//     naturally or through cancellation.
//
// composition events
//
//   - CompositionTextChanged (composition.text_changed): a role's compose
//     buffer changed.
//   - CompositionPredictionsUpdated (composition.predictions_updated): the
//     phrase predictions for a role's draft were replaced.
//   - CompositionTranslationsUpdated (composition.translations_updated): the
//     live translations for a role's draft were replaced.
//   - CompositionSubmitted (composition.submitted): a role submitted its
//     compose buffer.
//
// exchange events
//
//   - ExchangeStarted (exchange.started): a user submission opened a new
//     exchange and reply generation began.
//   - ExchangeReplySegment (exchange.reply_segment): streamed reply text
//     segment for the open exchange.
//   - ExchangeCompleted (exchange.completed): the exchange's reply settled.
//   - ExchangeFailed (exchange.failed): reply generation failed; a fallback
//     line was recorded instead.
//
// listening events
//
//   - ListeningStarted (listening.started): microphone capture began for a
//     role.
//   - ListeningStopped (listening.stopped): microphone capture ended.
//   - ListeningTranscriptInterim (listening.transcript_interim): mutable
//     interim transcript snapshot.
//   - ListeningTranscriptFinal (listening.transcript_final): final transcript
//     for the utterance.
//   - ListeningFailed (listening.failed): capture or transcription failed;
//     the listening toggle reverts.
package events
