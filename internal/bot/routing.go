package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/rollflow/internal/domain/receiving"
	"github.com/Spok95/rollflow/internal/report"
)

const helpText = `Команды:
/status — сводка по производству
/jo <id> — заказ: выпуск, отход, приёмка
/report <id> — Excel по заказу
/warnings — предупреждения по замерам`

func (b *Bot) onMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	// бот только для админского чата
	if chatID != b.adminChat {
		b.send(tgbotapi.NewMessage(chatID, "Нет доступа."))
		return
	}

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, chatID, msg.Command(), msg.CommandArguments())
	case msg.Text == btnStatus:
		b.handleCommand(ctx, chatID, "status", "")
	case msg.Text == btnWarnings:
		b.handleCommand(ctx, chatID, "warnings", "")
	default:
		b.reply(chatID, helpText)
	}
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, cmd, args string) {
	switch cmd {
	case "start", "help":
		b.reply(chatID, helpText)

	case "status":
		snap, err := b.snapshots.Current(ctx)
		if err != nil {
			b.log.Error("status snapshot failed", "err", err)
			b.reply(chatID, "Ошибка: не удалось получить сводку")
			return
		}
		b.reply(chatID, formatStatus(snap))

	case "jo", "report":
		id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
		if err != nil || id <= 0 {
			b.reply(chatID, fmt.Sprintf("Укажите номер заказа: /%s <id>", cmd))
			return
		}
		l, sum, err := b.jobOrders.JobOrder(ctx, id)
		if errors.Is(err, receiving.ErrJobOrderNotFound) {
			b.reply(chatID, fmt.Sprintf("Заказ %d не найден", id))
			return
		}
		if err != nil {
			b.log.Error("job order lookup failed", "job_order_id", id, "err", err)
			b.reply(chatID, "Ошибка: не удалось загрузить заказ")
			return
		}
		if cmd == "jo" {
			b.reply(chatID, formatSummary(sum))
			return
		}

		buf := &bytes.Buffer{}
		if err := report.WriteJobOrder(buf, l, sum); err != nil {
			b.log.Error("report render failed", "job_order_id", id, "err", err)
			b.reply(chatID, "Ошибка формирования файла")
			return
		}
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
			Name:  report.FileName(id, time.Now()),
			Bytes: buf.Bytes(),
		})
		doc.Caption = fmt.Sprintf("Заказ %d: %s", id, sum.Item)
		b.send(doc)

	case "warnings":
		ws, err := b.warnings.List(ctx)
		if err != nil {
			b.log.Error("warnings list failed", "err", err)
			b.reply(chatID, "Ошибка: не удалось загрузить предупреждения")
			return
		}
		b.reply(chatID, formatWarnings(ws))

	default:
		b.reply(chatID, helpText)
	}
}
