//go:build cgo

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	env "github.com/caarlos0/env/v11"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/wordwrap"

	"github.com/koscakluka/duolog-core/core/audio/miniaudio"
	"github.com/koscakluka/duolog-core/core/llms/groq"
	"github.com/koscakluka/duolog-core/core/prediction"
	predictionllm "github.com/koscakluka/duolog-core/core/prediction/llm"
	deepgramstt "github.com/koscakluka/duolog-core/core/speechtotext/deepgram"
	deepgramtts "github.com/koscakluka/duolog-core/core/texttospeech/deepgram"
	"github.com/koscakluka/duolog-core/core/translation/googletranslate"

	orchestration "github.com/koscakluka/duolog-core/core"
)

const (
	sidebarWidth      = 33
	sidebarPadding    = 1
	sidebarOuterWidth = sidebarWidth + sidebarPadding*2

	viewportPadding = 1
	composerHeight  = 4
)

type config struct {
	PrimaryLanguage string   `env:"DUOLOG_PRIMARY_LANGUAGE" envDefault:"en"`
	TargetLanguages []string `env:"DUOLOG_TARGET_LANGUAGES" envDefault:"fr"`
	PlaybackMode    string   `env:"DUOLOG_PLAYBACK_MODE" envDefault:"audio"`
	WordsPerMinute  int      `env:"DUOLOG_WORDS_PER_MINUTE" envDefault:"180"`
	AutoSubmit      bool     `env:"DUOLOG_AUTO_SUBMIT" envDefault:"false"`
	Instructions    string   `env:"DUOLOG_INSTRUCTIONS" envDefault:"You are a friendly conversation partner. Keep replies short and conversational."`
}

type playingKeyMsg string
type wordHighlightMsg struct {
	key   string
	index int
}
type compositionMsg struct {
	role string
	text string
}
type predictionsMsg []prediction.Prediction
type translationsMsg map[string]string
type transcriptMsg struct {
	role    string
	text    string
	interim bool
}
type historyLineMsg string
type listeningFailedMsg error

var program *tea.Program

type model struct {
	conversation *orchestration.Conversation

	termWidth  int
	termHeight int
	ready      bool

	history        []string
	assistantDraft string
	interim        string

	playingKey   string
	wordIndex    int
	predictions  []prediction.Prediction
	translations map[string]string

	showPredictions  bool
	showTranslations bool

	composer        textarea.Model
	viewport        viewport.Model
	automaticScroll bool
}

func newModel(conversation *orchestration.Conversation) model {
	composer := textarea.New()
	composer.Placeholder = "Type your turn..."
	composer.SetHeight(composerHeight - 2)
	composer.Focus()

	return model{
		conversation:    conversation,
		composer:        composer,
		automaticScroll: true,
		wordIndex:       -1,
		translations:    map[string]string{},
	}
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	viewportHeight := m.termHeight - viewportPadding*2 - composerHeight - 1

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height

		viewportHeight = m.termHeight - viewportPadding*2 - composerHeight - 1
		if !m.ready {
			m.viewport = viewport.New(m.viewportWidth(), viewportHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.viewportWidth()
			m.viewport.Height = viewportHeight
		}
		m.composer.SetWidth(m.viewportWidth())
		m.viewport.SetContent(m.getContent())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			m.conversation.User().SetText(strings.TrimSpace(m.composer.Value()))
			m.conversation.User().Submit(context.Background())
			m.composer.Reset()
			return m, nil

		case "ctrl+l":
			user := m.conversation.User()
			if user.IsListening() {
				user.StopListening(context.Background())
			} else if err := user.StartListening(context.Background()); err != nil {
				m.history = append(m.history, errorStyle.Render("listening: "+err.Error()))
			}
			return m, nil

		case "ctrl+p":
			m.showPredictions = !m.showPredictions
			m.conversation.User().SetPredictionsOpen(m.showPredictions)
			return m, nil

		case "ctrl+t":
			m.showTranslations = !m.showTranslations
			m.conversation.User().SetTranslationsOpen(m.showTranslations)
			return m, nil

		case "ctrl+r":
			m.conversation.User().Replay(context.Background(), orchestration.KeySubmitted)
			return m, nil

		case "ctrl+s":
			m.conversation.User().StopPlayback()
			m.conversation.Assistant().StopPlayback()
			return m, nil

		case "ctrl+c", "esc":
			return m, tea.Quit
		}

		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(msg)
		m.conversation.User().SetText(m.composer.Value())
		return m, cmd

	case playingKeyMsg:
		m.playingKey = string(msg)
		if m.playingKey == "" {
			m.wordIndex = -1
		}

	case wordHighlightMsg:
		m.playingKey = msg.key
		m.wordIndex = msg.index

	case compositionMsg:
		if msg.role == orchestration.RoleAssistant {
			m.assistantDraft = msg.text
			m.viewport.SetContent(m.getContent())
		}

	case predictionsMsg:
		m.predictions = msg

	case translationsMsg:
		m.translations = msg

	case transcriptMsg:
		if msg.interim {
			m.interim = msg.text
		} else {
			m.interim = ""
		}
		m.viewport.SetContent(m.getContent())

	case historyLineMsg:
		m.history = append(m.history, string(msg))
		m.assistantDraft = ""
		m.viewport.SetContent(m.getContent())
		if m.automaticScroll {
			m.viewport.GotoBottom()
		}

	case listeningFailedMsg:
		m.history = append(m.history, errorStyle.Render("listening failed: "+msg.Error()))
		m.viewport.SetContent(m.getContent())
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	m.automaticScroll = m.viewport.AtBottom()
	return m, cmd
}

func (m model) viewportWidth() int {
	return m.termWidth - sidebarOuterWidth - viewportPadding*2
}

func (m model) getContent() string {
	lines := make([]string, 0, len(m.history)+2)
	lines = append(lines, m.history...)
	if m.assistantDraft != "" {
		lines = append(lines, assistantStyle.Render("assistant: ")+m.assistantDraft)
	}
	if m.interim != "" {
		lines = append(lines, interimStyle.Render(m.interim))
	}
	return wordwrap.String(strings.Join(lines, "\n"), m.viewportWidth()-4)
}

var (
	labelStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	interimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (m model) View() string {
	if m.termWidth == 0 {
		return "Loading..."
	}

	mainStyle := lipgloss.NewStyle().
		Padding(1).
		Width(m.termWidth - sidebarOuterWidth).
		Height(m.termHeight - composerHeight - 1)

	sidebarStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(sidebarPadding).
		Width(sidebarWidth).
		Height(m.termHeight - 2)

	playing := m.playingKey
	if playing == "" {
		playing = "-"
	} else if m.wordIndex >= 0 {
		playing = fmt.Sprintf("%s (word %d)", playing, m.wordIndex)
	}

	sidebarLines := []string{
		labelStyle.Render("Playing") + ": " + valueStyle.Render(playing),
		labelStyle.Render("Listening") + ": " + valueStyle.Render(fmt.Sprintf("%v", m.conversation.User().IsListening())),
		labelStyle.Render("Mode") + ": " + valueStyle.Render(m.conversation.User().Mode().String()),
	}

	if m.showPredictions {
		sidebarLines = append(sidebarLines, "", labelStyle.Render("Predictions"))
		for _, p := range m.predictions {
			sidebarLines = append(sidebarLines, fmt.Sprintf("  %.2f %s", p.Probability, p.Phrase))
		}
	}
	if m.showTranslations {
		sidebarLines = append(sidebarLines, "", labelStyle.Render("Translations"))
		for language, text := range m.translations {
			sidebarLines = append(sidebarLines, fmt.Sprintf("  %s: %s", language, text))
		}
	}

	footer := lipgloss.NewStyle().
		PaddingTop(1).
		Foreground(lipgloss.Color("241")).
		Render("enter submit · ctrl+l listen · ctrl+p predictions · ctrl+t translations · ctrl+r replay · ctrl+s stop · esc quit")

	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left,
			mainStyle.Render(m.viewport.View()),
			m.composer.View(),
			footer,
		),
		sidebarStyle.Render(strings.Join(sidebarLines, "\n")),
	)
}

func buildConversation(cfg config) (*orchestration.Conversation, error) {
	primary, err := orchestration.ParseLanguage(cfg.PrimaryLanguage)
	if err != nil {
		return nil, err
	}

	targets := make([]orchestration.Language, 0, len(cfg.TargetLanguages))
	for _, raw := range cfg.TargetLanguages {
		target, err := orchestration.ParseLanguage(raw)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}

	mode, err := orchestration.ParsePlaybackMode(cfg.PlaybackMode)
	if err != nil {
		return nil, err
	}

	roleOpts := []orchestration.RoleOption{
		orchestration.WithPrimaryLanguage(primary),
		orchestration.WithTargetLanguages(targets...),
		orchestration.WithAudioEnabled(append([]orchestration.Language{primary}, targets...)...),
		orchestration.WithPlaybackMode(mode),
		orchestration.WithWordsPerMinute(cfg.WordsPerMinute),
	}

	opts := []orchestration.ConversationOption{
		orchestration.WithInstructions(cfg.Instructions),
		orchestration.WithStreamingLLM(groq.NewClient()),
		orchestration.WithPhrasePredictor(predictionllm.NewPredictionClient()),
		orchestration.WithSpeechToTextClient(deepgramstt.NewTranscriptionClient()),
		orchestration.WithUserRole(append(roleOpts, orchestration.WithAutoSubmit(cfg.AutoSubmit))...),
		orchestration.WithAssistantRole(roleOpts...),
	}

	if synthesizer, err := deepgramtts.NewSynthesisClient(); err == nil {
		opts = append(opts, orchestration.WithSynthesizer(synthesizer))
	} else {
		log.Warn("Speech synthesis disabled", "error", err)
	}

	if translator, err := googletranslate.NewTranslationClient(); err == nil {
		opts = append(opts, orchestration.WithTranslator(translator))
	} else {
		log.Warn("Translation disabled", "error", err)
	}

	if audioClient, err := miniaudio.NewClient(); err == nil {
		opts = append(opts,
			orchestration.WithAudioOutputV1(audioClient),
			orchestration.WithAudioInput(audioClient),
		)
	} else {
		log.Warn("Audio device unavailable", "error", err)
	}

	return orchestration.NewConversation(opts...), nil
}

func main() {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		log.Fatal("Failed to parse configuration", "error", err)
	}

	conversation, err := buildConversation(cfg)
	if err != nil {
		log.Fatal("Failed to configure conversation", "error", err)
	}

	program = tea.NewProgram(
		newModel(conversation),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = conversation.Converse(ctx,
		orchestration.WithPlayingKeyChangeCallback(func(key string) {
			program.Send(playingKeyMsg(key))
		}),
		orchestration.WithWordHighlightedCallback(func(key string, index int) {
			program.Send(wordHighlightMsg{key: key, index: index})
		}),
		orchestration.WithCompositionTextCallback(func(role, text string) {
			program.Send(compositionMsg{role: role, text: text})
		}),
		orchestration.WithPredictionsUpdatedCallback(func(_ string, predictions []prediction.Prediction) {
			program.Send(predictionsMsg(predictions))
		}),
		orchestration.WithTranslationsUpdatedCallback(func(_ string, translations map[string]string) {
			program.Send(translationsMsg(translations))
		}),
		orchestration.WithSubmissionCallback(func(role, _, text string) {
			if role == orchestration.RoleUser {
				program.Send(historyLineMsg(userStyle.Render(role+": ") + text))
			}
		}),
		orchestration.WithReplyEndCallback(func(reply string) {
			program.Send(historyLineMsg(assistantStyle.Render("assistant: ") + reply))
		}),
		orchestration.WithExchangeFailedCallback(func(err error) {
			program.Send(historyLineMsg(errorStyle.Render("reply failed: " + err.Error())))
		}),
		orchestration.WithInterimTranscriptionCallback(func(_ string, transcript string) {
			program.Send(transcriptMsg{text: transcript, interim: true})
		}),
		orchestration.WithTranscriptionCallback(func(role, transcript string) {
			program.Send(transcriptMsg{role: role, text: transcript})
		}),
		orchestration.WithListeningFailedCallback(func(_ string, err error) {
			program.Send(listeningFailedMsg(err))
		}),
	)
	if err != nil {
		log.Fatal("Failed to start conversation", "error", err)
	}
	defer conversation.Close(ctx)

	if _, err := program.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
