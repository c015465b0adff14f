package notify

import "strings"

// Broadcast texts. These are the bot's original user-facing strings; do not
// reword without also updating the pinned chat descriptions.
const (
	msgHeader = "Сегодня день рождения празднуют:\n"
	msgNobody = "Сегодня день рождения никто не празднует."
)

// FormatToday renders the broadcast body: the "nobody" sentence for an empty
// list, otherwise the header plus names joined by ",\n".
func FormatToday(names []string) string {
	if len(names) == 0 {
		return msgNobody
	}
	return msgHeader + strings.Join(names, ",\n")
}
