// Command chat runs a text-only HANA surface in the terminal against the
// configured LLM provider and knowledge base.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"hana-assistant-be/internal/config"
	"hana-assistant-be/internal/constant"
	"hana-assistant-be/internal/pkg/logger"
	"hana-assistant-be/pkg/assistant"
	"hana-assistant-be/pkg/chatbot"
	"hana-assistant-be/pkg/corpus"
	"hana-assistant-be/pkg/i18n"
	"hana-assistant-be/pkg/lifecycle"
	"hana-assistant-be/pkg/llm"
	"hana-assistant-be/pkg/llm/factory"
	"hana-assistant-be/pkg/rag"
	"hana-assistant-be/pkg/rag/prompt"
	"hana-assistant-be/pkg/store"

	"github.com/fatih/color"
)

type terminalObserver struct {
	phase lifecycle.Phase
}

func (o *terminalObserver) OnState(assistant.State) {}

func (o *terminalObserver) OnMessage(msg store.Message) {
	if msg.Sender == store.SenderAssistant {
		color.Green("HANA: %s\n", msg.Text)
	}
}

func (o *terminalObserver) OnTranscript(messages []store.Message) {
	for _, msg := range messages {
		o.OnMessage(msg)
	}
}

func (o *terminalObserver) OnInput(string) {}

func (o *terminalObserver) OnLifecycle(state lifecycle.State) {
	if state.Phase == o.phase {
		return
	}
	o.phase = state.Phase

	switch state.Phase {
	case lifecycle.PhaseGated:
		color.Yellow("\n[trial ended] type /continue to unlock the paid period\n")
	case lifecycle.PhasePaid:
		color.Cyan("[paid period started: %ds]\n", state.Remaining)
	case lifecycle.PhaseExpired:
		color.Yellow("\n[session expired] type /new to start over\n")
	}
}

func main() {
	cfg := config.Load()

	docs, err := corpus.LoadDir(cfg.Assistant.CorpusDir)
	if err != nil {
		log.Fatalf("Failed to load corpus: %v", err)
	}
	triggers, err := rag.LoadTriggerSet(cfg.Assistant.TriggersFile)
	if err != nil {
		triggers = rag.DefaultTriggers
	}

	provider, err := factory.NewLLMProvider(factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.LLMBaseURL,
		APIKey:   cfg.Ai.LLMAPIKey,
		Timeout:  cfg.Ai.LLMTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to initialize LLM Provider: %v", err)
	}
	backend := chatbot.NewBackend(provider, chatbot.WithProviderOptions(llm.WithTemperature(cfg.Ai.Temperature)))

	lang := i18n.Default
	if len(os.Args) > 1 {
		lang = i18n.Parse(os.Args[1])
	}

	ctrl := assistant.New(assistant.Deps{
		Sessions:   assistant.FromBackend(backend),
		Scorer:     rag.NewScorer(triggers),
		Augmenter:  prompt.NewAugmenter(prompt.DefaultTemplates),
		Corpus:     docs,
		Translator: i18n.NewStaticTranslator(constant.Catalog),
		Observer:   &terminalObserver{phase: lifecycle.PhaseTrial},
		Logger:     logger.NewNopLogger(),
	},
		assistant.WithLanguage(lang),
		assistant.WithVoiceMode(false),
		assistant.WithTickInterval(cfg.Assistant.TickInterval),
		assistant.WithSubmitTimeout(cfg.Assistant.SubmitTimeout),
		assistant.WithLifecycle(lifecycle.WithDurations(cfg.Assistant.TrialDuration, cfg.Assistant.PaidDuration)),
	)
	defer ctrl.Close()

	ctx := context.Background()
	if err := ctrl.Start(ctx); err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}

	color.Cyan("Commands: /new, /lang <en|id>, /continue, /export, /quit\n")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/new":
			err = ctrl.NewSession(ctx)
		case strings.HasPrefix(line, "/lang"):
			err = ctrl.SetLanguage(i18n.Parse(strings.TrimSpace(strings.TrimPrefix(line, "/lang"))))
		case line == "/continue":
			err = ctrl.ClearGate()
		case line == "/export":
			err = export(ctrl)
		default:
			err = ctrl.SendMessage(ctx, line)
		}

		if err != nil {
			color.Red("error: %v\n", err)
		}
	}
}

func export(ctrl *assistant.Controller) error {
	fileName, body := ctrl.ExportTranscript(time.Now())
	if err := os.WriteFile(fileName, []byte(body), 0o644); err != nil {
		return err
	}
	color.Cyan("transcript written to %s\n", fileName)
	return nil
}
