package alerts

import (
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// alertCooldown suppresses repeated alerts for the same provider and kind.
// Selection runs on every pipeline stage; without a cooldown an exhausted
// budget would page on each attempt.
const alertCooldown = 15 * time.Minute

// Bot sends operational alerts to a Telegram chat. Outbound only: it never
// polls for updates. A nil *Bot is valid and drops everything, so callers
// wire it unconditionally and the config decides.
type Bot struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewBot creates the alert bot. Returns (nil, nil) when token or chat id is
// empty, which disables alerting.
func NewBot(token string, chatID int64, logger *zap.Logger) (*Bot, error) {
	if token == "" || chatID == 0 {
		logger.Info("Telegram alerts are disabled (alerts.telegram token or chat_id is empty)")
		return nil, nil
	}

	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram alert bot authorized", zap.String("username", botAPI.Self.UserName))

	return &Bot{
		api:      botAPI,
		chatID:   chatID,
		logger:   logger,
		lastSent: make(map[string]time.Time),
	}, nil
}

// ProviderUnhealthy reports that a provider crossed the consecutive failure
// threshold and was taken out of rotation.
func (b *Bot) ProviderUnhealthy(provider string, consecutiveFailures int) {
	if b == nil {
		return
	}

	text := fmt.Sprintf(
		"🔴 Provider unhealthy\n\n"+
			"Provider: %s\n"+
			"Consecutive failures: %d\n\n"+
			"The provider has been removed from selection until it recovers or is reset manually.",
		provider, consecutiveFailures,
	)
	b.send("unhealthy:"+provider, text)
}

// BudgetExceeded reports that a provider was skipped because the request
// would push it over its monthly budget.
func (b *Bot) BudgetExceeded(provider string, currentUsage, monthlyBudget float64) {
	if b == nil {
		return
	}

	text := fmt.Sprintf(
		"💸 Provider budget exceeded\n\n"+
			"Provider: %s\n"+
			"Current usage: $%.2f\n"+
			"Monthly budget: $%.2f\n\n"+
			"Requests are being routed to fallbacks until usage resets.",
		provider, currentUsage, monthlyBudget,
	)
	b.send("budget:"+provider, text)
}

func (b *Bot) send(key, text string) {
	b.mu.Lock()
	last, seen := b.lastSent[key]
	now := time.Now()
	if seen && now.Sub(last) < alertCooldown {
		b.mu.Unlock()
		return
	}
	b.lastSent[key] = now
	b.mu.Unlock()

	msg := tgbotapi.NewMessage(b.chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send alert", zap.String("alert", key), zap.Error(err))
	}
}
