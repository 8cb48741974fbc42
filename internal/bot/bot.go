// Package bot is the admin's Telegram console: production status, job order
// summaries, data-quality warnings and workbook exports.
package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/rollflow/internal/domain/joborders"
	"github.com/Spok95/rollflow/internal/domain/quality"
	"github.com/Spok95/rollflow/internal/domain/receiving"
	"github.com/Spok95/rollflow/internal/snapshot"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

type Snapshots interface {
	Current(ctx context.Context) (snapshot.Snapshot, error)
}

type JobOrders interface {
	JobOrder(ctx context.Context, jobOrderID int64) (*receiving.Ledger, joborders.Summary, error)
}

type Warnings interface {
	List(ctx context.Context) ([]quality.Warning, error)
}

type Bot struct {
	api       API
	log       *slog.Logger
	adminChat int64
	snapshots Snapshots
	jobOrders JobOrders
	warnings  Warnings
}

func New(api API, log *slog.Logger, adminChatID int64, snaps Snapshots, jos JobOrders, ws Warnings) *Bot {
	return &Bot{
		api: api, log: log, adminChat: adminChatID,
		snapshots: snaps, jobOrders: jos, warnings: ws,
	}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			if upd.Message != nil {
				b.onMessage(ctx, upd.Message)
			}
		}
	}
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ReplyMarkup = adminReplyKeyboard()
	b.send(m)
}
