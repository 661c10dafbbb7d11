package di

import (
	"fmt"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/triagebot/llm-mail-triage/internal/adapters/ingress"
	"github.com/triagebot/llm-mail-triage/internal/adapters/notify"
	"github.com/triagebot/llm-mail-triage/internal/adapters/snow"
	"github.com/triagebot/llm-mail-triage/internal/config"
	"github.com/triagebot/llm-mail-triage/internal/core"
	"github.com/triagebot/llm-mail-triage/internal/factory"
	"github.com/triagebot/llm-mail-triage/internal/logging"
	"github.com/triagebot/llm-mail-triage/internal/ports"
	"github.com/triagebot/llm-mail-triage/internal/retry"
	"github.com/triagebot/llm-mail-triage/internal/utils"
)

// BuildContainer creates and configures the daemon's dependency container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewLedgerFactory); err != nil {
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

	// Register retrier for classifier calls
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
	if err := container.Provide(func(f *factory.LedgerFactory) (core.Ledger, error) {
		return f.CreateLedger()
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

	// Register mail ingress
	if err := container.Provide(func(
		service *core.TriageService,
		cfg *config.Config,
		logger *zap.Logger,
	) (ports.MailIngress, error) {
		delay, err := cfg.GetDuration("triage.message_delay")
		if err != nil {
			return nil, fmt.Errorf("invalid message delay: %w", err)
		}
		return ingress.NewSMTPIngress(
			service,
			cfg.GetString("ingress.listen_address"),
			cfg.GetString("triage.mailbox"),
			delay,
			logger,
		), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}
