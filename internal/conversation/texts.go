package conversation

import (
	"fmt"
	"strings"

	"github.com/soundcrew/houston/pkg/protocol"
)

const (
	textGreeting = "Привет! Я бот заявок звукового цеха.\n\n" +
		"Нажми «🚨 Хьюстон, у нас проблемы», чтобы создать новое обращение."

	textNewTicket   = "Начинаем новое обращение.\n\n1. Выберите сотрудника/ов (можно несколько):"
	textPickStaff   = "Пожалуйста, выберите хотя бы одного сотрудника."
	textPickDate    = "2. Выберите дату из календаря:"
	textDatePicked  = "Вы выбрали дату: %s\n\n3. Выберите площадку:"
	textPickPlay    = "4. Выберите спектакль:"
	textPlayPicked  = "Вы выбрали спектакль: %s\n\n5. Опишите проблему (текстом):"
	textAskCause    = "6. Предполагаемая причина проблемы (текстом):"
	textSaveFailed  = "Не удалось сохранить обращение. Попробуйте отправить причину ещё раз."
	textNoAccess    = "У вас нет прав для просмотра отчётов."
	alertNoAccess   = "Нет прав"
	textReportMenu  = "Меню отчётов:\n— Все обращения\n— По дате\n— По спектаклю\n— По месяцу"
	textReportDate  = "Выберите дату для отчёта:"
	textReportPlay  = "Выберите спектакль для отчёта:"
	textReportMonth = "Выберите год и месяц для отчёта:"
	textNoTickets   = "Нет обращений %s."
	textReportFail  = "Не удалось сформировать отчёт. Попробуйте позже."
	captionReport   = "Отчёт %s"

	usageReportDate  = "Укажи дату в формате YYYY-MM-DD, например:\n/report_date 2025-12-10"
	usageReportPlay  = "Укажи название спектакля, например:\n/report_play Гамлет"
	usageReportMonth = "Укажи месяц в формате YYYY-MM, например:\n/report_month 2025-12"

	textHelp = "Команды:\n" +
		"/start — главное меню\n" +
		"/reports — меню отчётов\n" +
		"/report — отчёт по всем обращениям\n" +
		"/report_date YYYY-MM-DD — отчёт по дате\n" +
		"/report_play Название — отчёт по спектаклю\n" +
		"/report_month YYYY-MM — отчёт за месяц\n" +
		"/help — эта справка"
)

// summary renders the confirmation sent after a ticket is stored.
func summary(t *protocol.Ticket) string {
	var b strings.Builder
	b.WriteString("Обращение сохранено ✅\n\n")
	fmt.Fprintf(&b, "Сотрудники: %s\n", t.StaffList())
	fmt.Fprintf(&b, "Дата: %s\n", t.Date)
	fmt.Fprintf(&b, "Площадка: %s\n", t.Venue)
	fmt.Fprintf(&b, "Спектакль: %s\n", t.Play)
	fmt.Fprintf(&b, "Проблема: %s\n", t.Problem)
	fmt.Fprintf(&b, "Причина: %s", t.Cause)
	return b.String()
}
