// Package telegram posts announcements to a Telegram chat and exposes the
// bot connection's lifecycle to the scheduler.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/JakeFAU/league-watcher/internal/league"
)

// Config controls the bot connection and sends.
type Config struct {
	Token       string
	ChatID      int64
	ThreadID    int
	PollTimeout time.Duration
	// RatePerSec caps outgoing messages. Zero means one per second.
	RatePerSec float64
}

type bot interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Start()
	Stop()
}

// Notifier sends one chat message per announced league.
type Notifier struct {
	bot     bot
	chat    *tele.Chat
	opts    *tele.SendOptions
	limiter *rate.Limiter
	logger  *zap.Logger

	mu        sync.Mutex
	started   bool
	stopped   bool
	ready     chan struct{}
	done      chan struct{}
	readyOnce sync.Once
}

var _ league.Notifier = (*Notifier)(nil)

// New connects to Telegram. The bot token is verified during construction.
func New(cfg Config, logger *zap.Logger) (*Notifier, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is required")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("connect telegram: %w", err)
	}
	return newWithBot(b, cfg, logger), nil
}

func newWithBot(b bot, cfg Config, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}
	return &Notifier{
		bot:     b,
		chat:    &tele.Chat{ID: cfg.ChatID},
		opts:    &tele.SendOptions{ThreadID: cfg.ThreadID, DisableWebPagePreview: true},
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
		logger:  logger.Named("telegram"),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Ready is closed when the polling goroutine launches, just before the long
// poller's first request. The token was already verified by New, so sends
// work from this point on; it does not wait for a poll round-trip.
func (n *Notifier) Ready() <-chan struct{} { return n.ready }

// Done is closed when polling ends, either through Stop or ctx.
func (n *Notifier) Done() <-chan struct{} { return n.done }

// Start begins long polling in the background. It stops when ctx is done.
func (n *Notifier) Start(ctx context.Context) {
	n.mu.Lock()
	if n.started {
		n.mu.Unlock()
		return
	}
	n.started = true
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.Stop()
	}()

	go func() {
		defer close(n.done)
		n.readyOnce.Do(func() { close(n.ready) })
		n.logger.Info("polling started")
		n.bot.Start() // blocks until Stop
		n.logger.Info("polling stopped")
	}()
}

// Stop ends polling. Safe to call more than once.
func (n *Notifier) Stop() {
	n.mu.Lock()
	if !n.started || n.stopped {
		n.mu.Unlock()
		return
	}
	n.stopped = true
	n.mu.Unlock()
	n.bot.Stop()
}

// Notify sends one message per league, throttled. Send failures are logged
// and skipped; only cancellation is returned.
func (n *Notifier) Notify(ctx context.Context, leagues []league.League) error {
	for _, l := range leagues {
		if err := n.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("telegram throttle: %w", err)
		}
		line := league.FormatLine(l)
		if _, err := n.bot.Send(n.chat, line, n.opts); err != nil {
			n.logger.Warn("send failed",
				zap.Int64("chat_id", n.chat.ID),
				zap.String("league", l.Name),
				zap.Error(err),
			)
			continue
		}
		n.logger.Debug("announced", zap.String("league", l.Name))
	}
	return nil
}
