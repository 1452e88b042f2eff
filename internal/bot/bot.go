package bot

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-dashboard/internal/repository"
	"task-dashboard/internal/service"
)

// Bot connects the Telegram API to the command handler.
type Bot struct {
	api         *tgbotapi.BotAPI
	commands    *Commands
	subscribers *repository.SubscriberRepository
	reminders   *service.ReminderService
}

func New(token string, commands *Commands, subscribers *repository.SubscriberRepository, reminders *service.ReminderService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:         api,
		commands:    commands,
		subscribers: subscribers,
		reminders:   reminders,
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		msg := update.Message
		if msg == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
			continue
		}
		if err := b.handleMessage(ctx, msg); err != nil {
			log.Printf("handle message: %v", err)
		}
	}

	return ctx.Err()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() {
		return b.sendText(msg.Chat.ID, "Send /help for the list of commands.")
	}

	in := Incoming{
		ChatID:  msg.Chat.ID,
		Command: msg.Command(),
		Args:    msg.CommandArguments(),
	}
	if msg.From != nil {
		in.FirstName = msg.From.FirstName
		in.Username = msg.From.UserName
	}
	log.Printf("[info] command from %d: /%s %s", in.ChatID, in.Command, in.Args)

	reply, err := b.commands.Handle(ctx, in)
	if err != nil {
		_ = b.sendText(msg.Chat.ID, "Something went wrong, try again later.")
		return fmt.Errorf("/%s: %w", in.Command, err)
	}
	return b.sendText(msg.Chat.ID, reply)
}

// SendDailyReports sends the summary to every subscriber.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	subs, err := b.subscribers.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}
	summary, err := b.reminders.DailySummary(ctx)
	if err != nil {
		return fmt.Errorf("build summary: %w", err)
	}
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.sendText(sub.ChatID, summary); err != nil {
			log.Printf("send summary to %d: %v", sub.ChatID, err)
		}
	}
	log.Printf("[info] daily report sent to %d subscribers", len(subs))
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := b.api.Send(msg)
	return err
}
