package menu

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/study-groups-bot/internal/models"
)

// Тексты кнопок основного меню; диспетчер сравнивает с ними входящий текст.
const (
	BtnLogin           = "🔑 Login"
	BtnRegister        = "📝 Register"
	BtnLoginInstructor = "🎓 Login as Instructor"

	BtnMyProfile   = "👤 My profile"
	BtnEditProfile = "✏️ Edit profile"
	BtnMyGroups    = "📚 My groups"

	BtnDashboard = "📊 Dashboard"
	BtnRefresh   = "🔄 Refresh Evaluation"
	BtnExport    = "📥 Export evaluation"

	BtnLogout = "🚪 Logout"
)

// GetRoleMenu возвращает меню в зависимости от роли; пустая роль: меню входа.
func GetRoleMenu(role models.Role) tgbotapi.ReplyKeyboardMarkup {
	switch role {
	case models.Student:
		return studentMenu()
	case models.Instructor:
		return instructorMenu()
	default:
		return loggedOutMenu()
	}
}

func loggedOutMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnLogin),
			tgbotapi.NewKeyboardButton(BtnRegister),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnLoginInstructor),
		),
	)
}

func studentMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnMyGroups),
			tgbotapi.NewKeyboardButton(BtnMyProfile),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnEditProfile),
			tgbotapi.NewKeyboardButton(BtnLogout),
		),
	)
}

func instructorMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnDashboard),
			tgbotapi.NewKeyboardButton(BtnRefresh),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnExport),
			tgbotapi.NewKeyboardButton(BtnLogout),
		),
	)
}
