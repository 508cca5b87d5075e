package main

import (
	"spendly/internal/ai"
	"spendly/internal/amqp"
	"spendly/internal/classify"
	"spendly/internal/config"
	applog "spendly/internal/log"
	"spendly/internal/ports"
	"spendly/internal/services"
)

// newAssistant wires the AI helpers when an API key is configured. Without
// one the assistant answers every call with services.ErrAIDisabled.
func newAssistant(cfg *config.Config, taxonomy services.TaxonomyRepository, usageStore ports.UsageStore) (*services.AssistantService, error) {
	if !cfg.AIEnabled() {
		logger.WithComponent(applog.ComponentAI).Info("AI assistant disabled: no API key configured")
		return services.NewAssistantService(taxonomy, nil, nil, nil, cfg.Locale), nil
	}

	client, err := ai.NewClient(ai.Config{
		APIKey:             cfg.OpenAIAPIKey,
		BaseURL:            cfg.OpenAIBaseURL,
		ChatModel:          cfg.OpenAIChatModel,
		TranscriptionModel: cfg.OpenAITranscriptionModel,
		Temperature:        &cfg.OpenAITemperature,
		Timeout:            cfg.OpenAITimeout,
	})
	if err != nil {
		return nil, err
	}

	usage := services.NewUsageRecorder(usageStore)
	gateway := classify.NewGateway(client, classify.GatewayConfig{
		DefaultCurrency:      cfg.DefaultCurrency,
		ValidateSuggestedIDs: cfg.ValidateSuggestedIDs,
		Usage:                usage,
	})
	voice := classify.NewVoice(client, gateway, language(cfg.Locale))
	suggester := classify.NewSuggester(client, usage)
	return services.NewAssistantService(taxonomy, gateway, voice, suggester, cfg.Locale), nil
}

// language reduces a locale such as "es-GT" to its language code.
func language(locale string) string {
	for i, r := range locale {
		if r == '-' || r == '_' {
			return locale[:i]
		}
	}
	return locale
}

// newEventPublisher connects to the broker when one is configured. A broker
// that is down at startup is not fatal: expenses are still saved, only the
// events are lost.
func newEventPublisher(cfg *config.Config) (ports.EventPublisher, func()) {
	if cfg.AMQPURL == "" {
		return nil, func() {}
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		logger.WithComponent(applog.ComponentAMQP).Warn("Expense events disabled: broker unreachable", applog.FieldError, err)
		return nil, func() {}
	}
	logger.WithComponent(applog.ComponentAMQP).Info("Publishing expense events", "exchange", cfg.AMQPExchange)
	return client, func() {
		if err := client.Close(); err != nil {
			logger.WithComponent(applog.ComponentAMQP).Warn("Failed to close AMQP client", applog.FieldError, err)
		}
	}
}
