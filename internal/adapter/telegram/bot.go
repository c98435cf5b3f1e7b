// Package telegram runs the chat pipeline behind a Telegram bot: voice notes
// become conversational turns in a per-chat session.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"voice-agent/internal/config"
	"voice-agent/internal/domain"
	"voice-agent/internal/usecase/agent"
)

const chunkSize = 2048

const (
	textHint     = "Send me a voice message and I will answer out loud. /new starts a fresh conversation, /history shows its size."
	failureReply = "Sorry, that did not work: "
)

// Agent is the part of the pipeline service the bot drives.
type Agent interface {
	Chat(ctx context.Context, sessionID string, audio agent.Audio, voice string) domain.Result
	NewSession(ctx context.Context) (string, error)
	History(ctx context.Context, sessionID string) (domain.History, error)
}

var _ Agent = (*agent.Service)(nil)

type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      config.Config
	agent    Agent
	sessions *sessions
	http     *http.Client
	logger   *slog.Logger
}

func NewBot(cfg config.Config, a Agent, logger *slog.Logger) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}

	return &Bot{
		api:      api,
		cfg:      cfg,
		agent:    a,
		sessions: newSessions(),
		http:     &http.Client{Timeout: time.Minute},
		logger:   logger,
	}, nil
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.logger.Info("telegram bot started", "username", b.api.Self.UserName)
	return serve(ctx, updates, b.handleMessage)
}

// serve dispatches each incoming message to handle on its own goroutine.
// It returns once ctx is done or updates is closed, and only after every
// handler it started has returned.
func serve(ctx context.Context, updates <-chan tgbotapi.Update, handle func(context.Context, *tgbotapi.Message)) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			msg := update.Message
			if msg == nil || msg.From == nil {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				handle(ctx, msg)
			}()
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !isAllowedUser(msg.From.ID, b.cfg) {
		b.sendText(msg.Chat.ID, msg.MessageID, "access denied")
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	att, ok := audioAttachment(msg)
	if !ok {
		b.sendText(msg.Chat.ID, msg.MessageID, textHint)
		return
	}
	b.handleAudio(ctx, msg, att)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "new":
		id, err := b.agent.NewSession(ctx)
		if err != nil {
			b.logger.Error("create session", "chat_id", chatID, "err", err)
			b.sendText(chatID, msg.MessageID, failureReply+err.Error())
			return
		}
		b.sessions.set(chatID, id)
		b.sendText(chatID, msg.MessageID, "New chat session created")
	case "history":
		id := b.sessions.current(chatID)
		h, err := b.agent.History(ctx, id)
		if err != nil {
			b.logger.Error("read history", "session_id", id, "err", err)
			b.sendText(chatID, msg.MessageID, failureReply+err.Error())
			return
		}
		b.sendText(chatID, msg.MessageID, historySummary(h))
	default:
		b.sendText(chatID, msg.MessageID, textHint)
	}
}

func (b *Bot) handleAudio(ctx context.Context, msg *tgbotapi.Message, att attachment) {
	chatID := msg.Chat.ID
	b.sendChatAction(chatID, tgbotapi.ChatRecordVoice)

	body, err := b.download(ctx, att.fileID)
	if err != nil {
		b.logger.Error("download voice", "chat_id", chatID, "err", err)
		b.sendText(chatID, msg.MessageID, failureReply+"could not download the recording")
		return
	}
	defer body.Close()

	sessionID := b.sessions.current(chatID)
	res := b.agent.Chat(ctx, sessionID, agent.Audio{Filename: att.filename, Body: body}, "")

	b.sendText(chatID, msg.MessageID, replyText(res))
	if !res.Success || res.AudioURL == "" {
		return
	}
	if isAbsoluteURL(res.AudioURL) {
		voice := tgbotapi.NewAudio(chatID, tgbotapi.FileURL(res.AudioURL))
		if _, err := b.api.Send(voice); err != nil {
			b.logger.Warn("send audio", "chat_id", chatID, "err", err)
			b.sendText(chatID, 0, "Audio: "+res.AudioURL)
		}
		return
	}
	b.sendText(chatID, 0, "Audio: "+res.AudioURL)
}

func (b *Bot) sendText(chatID int64, replyTo int, text string) {
	for idx, chunk := range splitText(text, chunkSize) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if idx == 0 {
			msg.ReplyToMessageID = replyTo
		}
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Warn("send reply", "chat_id", chatID, "err", err)
		}
	}
}

func (b *Bot) sendChatAction(chatID int64, action string) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, action)); err != nil {
		b.logger.Debug("send chat action", "chat_id", chatID, "err", err)
	}
}

// replyText renders a pipeline result for the chat.
func replyText(res domain.Result) string {
	var parts []string
	if res.Transcription != "" {
		parts = append(parts, "You said: "+res.Transcription)
	}
	if res.LLMResponse != "" {
		parts = append(parts, res.LLMResponse)
	}
	if !res.Success {
		parts = append(parts, failureReply+res.Error)
	}
	return strings.Join(parts, "\n\n")
}

func historySummary(h domain.History) string {
	if !h.Exists {
		return "No conversation yet. Send a voice message to start one."
	}
	return fmt.Sprintf("Session %s has %d messages.", h.SessionID, len(h.Messages))
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func isAllowedUser(userID int64, cfg config.Config) bool {
	for _, id := range cfg.AdminUserIDs {
		if id == userID {
			return true
		}
	}

	if len(cfg.AllowedUserIDs) == 0 {
		return true
	}

	for _, id := range cfg.AllowedUserIDs {
		if id == userID {
			return true
		}
	}

	return false
}

func splitText(text string, size int) []string {
	if size <= 0 {
		return []string{text}
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// sessions maps Telegram chats onto conversation ids. A chat uses
// "telegram-<chatID>" until /new replaces it.
type sessions struct {
	mu   sync.Mutex
	byID map[int64]string
}

func newSessions() *sessions {
	return &sessions{byID: make(map[int64]string)}
}

func (s *sessions) current(chatID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byID[chatID]; ok {
		return id
	}
	return fmt.Sprintf("telegram-%d", chatID)
}

func (s *sessions) set(chatID int64, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[chatID] = id
}
