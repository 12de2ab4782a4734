package deepgram

import "strings"

type deepgramVoice string

const (
	VoiceAsteriaEN deepgramVoice = "aura-2-asteria-en"
	VoiceThaliaEN  deepgramVoice = "aura-2-thalia-en"
	VoiceOrionEN   deepgramVoice = "aura-2-orion-en"
	VoiceCelesteES deepgramVoice = "aura-2-celeste-es"
	VoiceEstrellES deepgramVoice = "aura-2-estrella-es"
)

const defaultVoice = VoiceAsteriaEN

func GetAvailableVoices() []deepgramVoice {
	return []deepgramVoice{
		VoiceAsteriaEN,
		VoiceThaliaEN,
		VoiceOrionEN,
		VoiceCelesteES,
		VoiceEstrellES,
	}
}

// voiceForLanguage maps a BCP 47 code onto a voice that speaks it, keeping
// fallback when the language has no dedicated voice.
func voiceForLanguage(language string, fallback deepgramVoice) deepgramVoice {
	base, _, _ := strings.Cut(strings.ToLower(language), "-")
	switch base {
	case "en":
		return VoiceAsteriaEN
	case "es":
		return VoiceCelesteES
	}

	return fallback
}
