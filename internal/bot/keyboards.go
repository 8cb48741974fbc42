package bot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

const (
	btnStatus   = "Сводка"
	btnWarnings = "Предупреждения"
)

// adminReplyKeyboard Нижняя панель для админа
func adminReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]tgbotapi.KeyboardButton{
			{tgbotapi.NewKeyboardButton(btnStatus), tgbotapi.NewKeyboardButton(btnWarnings)},
		},
	}
}
