package router

import (
	"context"
	"time"

	"bdaybot/internal/transport/telegram/adapter"

	kit "bdaybot/internal/transport"
)

// Subscriptions is the slice of the subscriber registry the gateway needs.
type Subscriptions interface {
	Add(ctx context.Context, id int64) (bool, error)
	Remove(ctx context.Context, id int64) (bool, error)
}

// BirthdayQueries answers the interactive "who celebrates today" lookup.
// The second return reports whether the chat was authorized to ask.
type BirthdayQueries interface {
	QueryToday(ctx context.Context, id int64) (string, bool, error)
}

const (
	btnBirthday    = "Узнать про ДР сегодня"
	btnSubscribe   = "Подписаться на уведомления"
	btnUnsubscribe = "Отписаться от уведомлений"
	btnHelp        = "Помощь"

	msgStart = "Привет! Я бот, который поможет вам узнавать, у кого сегодня день рождения.\n\n" +
		"После подписки вы будете получать уведомления о днях рождения каждое утро.\n\n" +
		"Для доступа ко всем функциям бота, нажмите на значок меню в командной строке."

	msgHelp = "Доступные команды:\n" +
		"/start - Начать взаимодействие с ботом.\n" +
		"/birthday - Узнать, у кого сегодня день рождения.\n" +
		"/subscribe - Подписаться на уведомления о днях рождения.\n" +
		"/unsubscribe - Отписаться от уведомлений.\n" +
		"/help - Показать это сообщение.\n\n" +
		"Также вы можете нажать на значок меню в командной строке, чтобы увидеть список доступных команд и кнопок."

	msgSubscribed     = "✅ Вы подписаны на уведомления!"
	msgAlreadySubbed  = "Вы уже подписаны."
	msgUnsubscribed   = "❌ Вы отписались от уведомлений."
	msgWasNotSubbed   = "Вы не были подписаны."
	msgSubscribeFirst = "Пожалуйста, подпишитесь на уведомления с помощью команды '/subscribe' для получения информации о днях рождения."

	msgUnknownCommand = "Неизвестная команда. Наберите /help для списка команд."
)

// mainMenuMarkup is the persistent reply keyboard attached to /start.
func mainMenuMarkup() any {
	return adapter.ReplyKeyboard([][]string{
		{btnBirthday},
		{btnSubscribe},
		{btnUnsubscribe},
		{btnHelp},
	})
}

// Commands builds the full command table for the bot.
func Commands(subs Subscriptions, queries BirthdayQueries) []Command {
	const handlerTimeout = 15 * time.Second

	reply := func(ctx context.Context, req *Request, text string, opt *kit.SendOptions) error {
		_, err := req.Adapter.SendText(ctx, req.Chat, text, opt)
		return err
	}

	return []Command{
		{
			Route:       "start",
			Description: "Начать взаимодействие с ботом",
			Timeout:     handlerTimeout,
			Handle: func(ctx context.Context, req *Request) error {
				return reply(ctx, req, msgStart, &kit.SendOptions{ReplyMarkupAdapter: mainMenuMarkup()})
			},
		},
		{
			Route:       "help",
			Description: "Показать список команд",
			ButtonLabel: btnHelp,
			Timeout:     handlerTimeout,
			Handle: func(ctx context.Context, req *Request) error {
				return reply(ctx, req, msgHelp, nil)
			},
		},
		{
			Route:       "subscribe",
			Description: "Подписаться на уведомления",
			ButtonLabel: btnSubscribe,
			Timeout:     handlerTimeout,
			Handle: func(ctx context.Context, req *Request) error {
				added, err := subs.Add(ctx, req.Chat.ChatID)
				if err != nil {
					return err
				}
				if added {
					return reply(ctx, req, msgSubscribed, nil)
				}
				return reply(ctx, req, msgAlreadySubbed, nil)
			},
		},
		{
			Route:       "unsubscribe",
			Description: "Отписаться от уведомлений",
			ButtonLabel: btnUnsubscribe,
			Timeout:     handlerTimeout,
			Handle: func(ctx context.Context, req *Request) error {
				removed, err := subs.Remove(ctx, req.Chat.ChatID)
				if err != nil {
					return err
				}
				if removed {
					return reply(ctx, req, msgUnsubscribed, nil)
				}
				return reply(ctx, req, msgWasNotSubbed, nil)
			},
		},
		{
			Route:       "birthday",
			Description: "Узнать, у кого сегодня день рождения",
			ButtonLabel: btnBirthday,
			Timeout:     handlerTimeout,
			Handle: func(ctx context.Context, req *Request) error {
				text, authorized, err := queries.QueryToday(ctx, req.Chat.ChatID)
				if err != nil {
					return err
				}
				if !authorized {
					return reply(ctx, req, msgSubscribeFirst, nil)
				}
				return reply(ctx, req, text, nil)
			},
		},
	}
}
