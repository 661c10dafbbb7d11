package di

import (
	"flag"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/triagebot/llm-mail-triage/internal/adapters/notify"
	"github.com/triagebot/llm-mail-triage/internal/adapters/snow"
	"github.com/triagebot/llm-mail-triage/internal/config"
	"github.com/triagebot/llm-mail-triage/internal/core"
	"github.com/triagebot/llm-mail-triage/internal/factory"
	"github.com/triagebot/llm-mail-triage/internal/logging"
	"github.com/triagebot/llm-mail-triage/internal/retry"
	"github.com/triagebot/llm-mail-triage/internal/utils"
)

// CLIFlags contains all command line flags for the one-shot CLI
type CLIFlags struct {
	// LLM provider flags
	Provider    string
	MaxTokens   int
	Temperature float64
	TopP        float64
	MaxBodySize int

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Ticketing backend flags
	SnowURL      string
	SnowUsername string
	SnowPassword string

	// Input flags
	InputFile  string
	DryRun     bool
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// LLM provider flags
	flag.StringVar(&flags.Provider, "provider", "gemini", "LLM provider (gemini, openai, bedrock)")
	flag.IntVar(&flags.MaxTokens, "max-tokens", 1000, "Maximum tokens for LLM response")
	flag.Float64Var(&flags.Temperature, "temperature", 0.1, "Temperature for LLM generation")
	flag.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for LLM generation")
	flag.IntVar(&flags.MaxBodySize, "max-body-size", 4096, "Maximum email body size to send to LLM")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4", "OpenAI model name")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Ticketing backend flags
	flag.StringVar(&flags.SnowURL, "snow-url", "http://localhost:5000", "Ticketing backend base URL")
	flag.StringVar(&flags.SnowUsername, "snow-user", "", "Ticketing backend username")
	flag.StringVar(&flags.SnowPassword, "snow-password", "", "Ticketing backend password")

	// Input flags
	flag.StringVar(&flags.InputFile, "file", "", "Input email file (use stdin if not specified)")
	flag.BoolVar(&flags.DryRun, "dry-run", false, "Resolve the action but do not dispatch it")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// createConfigFromFlags builds a Config from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	setFlagValue(v, "llm.provider", flags.Provider)

	setFlagValue(v, "gemini.api_key", flags.GeminiAPIKey)
	setFlagValue(v, "gemini.model_name", flags.GeminiModelName)
	v.Set("gemini.max_tokens", flags.MaxTokens)
	v.Set("gemini.temperature", flags.Temperature)
	v.Set("gemini.top_p", flags.TopP)
	v.Set("gemini.max_body_size", flags.MaxBodySize)

	setFlagValue(v, "openai.api_key", flags.OpenAIAPIKey)
	setFlagValue(v, "openai.model_name", flags.OpenAIModelName)
	v.Set("openai.max_tokens", flags.MaxTokens)
	v.Set("openai.temperature", flags.Temperature)
	v.Set("openai.top_p", flags.TopP)
	v.Set("openai.max_body_size", flags.MaxBodySize)

	setFlagValue(v, "bedrock.region", flags.BedrockRegion)
	setFlagValue(v, "bedrock.model_id", flags.BedrockModelID)
	v.Set("bedrock.max_tokens", flags.MaxTokens)
	v.Set("bedrock.temperature", flags.Temperature)
	v.Set("bedrock.top_p", flags.TopP)
	v.Set("bedrock.max_body_size", flags.MaxBodySize)

	setFlagValue(v, "snow.url", flags.SnowURL)
	setFlagValue(v, "snow.username", flags.SnowUsername)
	setFlagValue(v, "snow.password", flags.SnowPassword)

	return config.NewFromViper(v)
}

func setFlagValue(v *viper.Viper, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

// BuildCLIContainer creates a dependency container for the one-shot CLI
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register text model
	if err := container.Provide(func(f *factory.LLMFactory) (core.TextModel, error) {
		return f.CreateTextModel()
	}); err != nil {
		return nil, err
	}

	// Register retrier
	if err := container.Provide(func(cfg *config.Config) (*retry.Retrier, error) {
		initial, err := cfg.GetDuration("retry.initial")
		if err != nil {
			return nil, fmt.Errorf("invalid retry initial delay: %w", err)
		}
		max, err := cfg.GetDuration("retry.max")
		if err != nil {
			return nil, fmt.Errorf("invalid retry max delay: %w", err)
		}
		policy := retry.Policy{
			Initial:    initial,
			Multiplier: cfg.GetFloat64("retry.multiplier"),
			Max:        max,
		}
		return retry.New(policy, nil), nil
	}); err != nil {
		return nil, err
	}

	// Register intent classifier
	if err := container.Provide(func(
		model core.TextModel,
		retrier *retry.Retrier,
		textProcessor *utils.TextProcessor,
		f *factory.LLMFactory,
		logger *zap.Logger,
	) *core.IntentClassifier {
		return core.NewIntentClassifier(model, retrier, textProcessor, f.MaxBodySize(), logger)
	}); err != nil {
		return nil, err
	}

	// Register ticketing backend client
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.TicketBackend, error) {
		snowCfg := cfg.GetSnow()
		timeout, err := cfg.GetDuration("snow.timeout")
		if err != nil {
			return nil, fmt.Errorf("invalid backend timeout: %w", err)
		}
		return snow.NewClient(snowCfg.URL, snowCfg.Username, snowCfg.Password, timeout, logger), nil
	}); err != nil {
		return nil, err
	}

	// Register notification gateway
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.Notifier {
		notifyCfg := cfg.GetNotify()
		return notify.NewSMTPNotifier(notifyCfg.Host, notifyCfg.Port, notifyCfg.From, logger)
	}); err != nil {
		return nil, err
	}

	// Register ledger
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.Ledger, error) {
		return factory.NewLedgerFactory(cfg, logger).CreateLedger()
	}); err != nil {
		return nil, err
	}

	// Register dispatcher
	if err := container.Provide(func(
		backend core.TicketBackend,
		notifier core.Notifier,
		ledger core.Ledger,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.Dispatcher {
		return core.NewDispatcher(
			backend,
			notifier,
			ledger,
			cfg.GetNotify().Approver,
			cfg.GetSnow().AssignmentGroup,
			logger,
		)
	}); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(func(
		classifier *core.IntentClassifier,
		dispatcher *core.Dispatcher,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.TriageService {
		return core.NewTriageService(
			classifier,
			dispatcher,
			cfg.GetStringSlice("triage.ignored_senders"),
			logger,
		)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
