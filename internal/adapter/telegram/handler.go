package telegram

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	chart "github.com/wcharczuk/go-chart/v2"

	"subscriber-relay-bot/internal/domain"
	"subscriber-relay-bot/internal/usecase"
)

const (
	openWebAppLabel   = "Web Ilovani Ochish"
	shareContactLabel = "Raqamimni ulashish"
	funnelMissingText = "Voronka mavjud emas"
)

// Bot is the part of *tgbotapi.BotAPI the handler needs.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Handler struct {
	bot       Bot
	relay     *usecase.Relay
	funnel    *usecase.FunnelUsecase
	webAppURL string
	logger    *slog.Logger
}

func NewHandler(bot Bot, relay *usecase.Relay, webAppURL string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{bot: bot, relay: relay, webAppURL: webAppURL, logger: logger}
}

func (h *Handler) SetFunnel(f *usecase.FunnelUsecase) { h.funnel = f }

// NewUpdateConfig asks for messages only; member joins arrive as service messages.
func NewUpdateConfig() tgbotapi.UpdateConfig {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}
	return u
}

// Run handles updates one at a time until ctx is cancelled or the channel closes.
func (h *Handler) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.safeHandle(ctx, update)
		}
	}
}

func (h *Handler) safeHandle(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("update handler panicked", "update_id", update.UpdateID, "panic", r)
		}
	}()
	h.HandleUpdate(ctx, update)
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	h.logger.Debug("update received", "update_id", update.UpdateID, "chat_id", msg.Chat.ID)
	chat := chatOf(msg.Chat)

	switch {
	case len(msg.NewChatMembers) > 0:
		members := make([]domain.Profile, 0, len(msg.NewChatMembers))
		for i := range msg.NewChatMembers {
			members = append(members, profileOf(&msg.NewChatMembers[i]))
		}
		n := h.relay.OnMembersJoined(ctx, chat, members)
		h.logger.Info("new members handled", "chat_id", chat.ID, "notified", n)

	case msg.Contact != nil && msg.From != nil:
		replies := h.relay.OnContactShared(ctx, profileOf(msg.From), msg.Contact.PhoneNumber, chat)
		h.sendReplies(chat.ID, replies)

	case msg.IsCommand() && msg.From != nil:
		h.handleCommand(ctx, msg, chat)
	}
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message, chat domain.Chat) {
	switch msg.Command() {
	case "start":
		h.sendReplies(chat.ID, h.relay.OnSessionStart(ctx, profileOf(msg.From)))
	case "subscribers":
		h.sendReplies(chat.ID, []domain.Reply{h.relay.OnAdminQuery(msg.From.ID)})
	case "funnel":
		if !h.relay.IsAdmin(msg.From.ID) {
			h.sendReplies(chat.ID, []domain.Reply{{Text: usecase.TextPermissionDenied}})
			return
		}
		h.sendFunnel(chat.ID)
	}
}

func (h *Handler) sendReplies(chatID int64, replies []domain.Reply) {
	for _, r := range replies {
		msg := tgbotapi.NewMessage(chatID, r.Text)
		if markup := h.markupFor(r.Markup); markup != nil {
			msg.ReplyMarkup = markup
		}
		if _, err := h.bot.Send(msg); err != nil {
			h.logger.Error("send reply failed", "chat_id", chatID, "error", err)
		}
	}
}

func (h *Handler) markupFor(m domain.Markup) interface{} {
	switch m {
	case domain.MarkupWebApp:
		return newWebAppKeyboard(openWebAppLabel, h.webAppURL)
	case domain.MarkupRequestContact:
		kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact(shareContactLabel),
		))
		kb.OneTimeKeyboard = true
		kb.ResizeKeyboard = true
		return kb
	case domain.MarkupRemoveKeyboard:
		return tgbotapi.NewRemoveKeyboard(true)
	default:
		return nil
	}
}

func (h *Handler) sendFunnel(chatID int64) {
	if h.funnel == nil {
		h.sendReplies(chatID, []domain.Reply{{Text: funnelMissingText}})
		return
	}
	labels, values, err := h.funnel.GraphData()
	if err == nil {
		err = h.sendFunnelChart(chatID, labels, values)
	}
	if err != nil {
		h.logger.Error("funnel chart failed", "chat_id", chatID, "error", err)
		h.sendReplies(chatID, []domain.Reply{{Text: h.funnel.Chart()}})
	}
}

func (h *Handler) sendFunnelChart(chatID int64, labels []string, values []int) error {
	png, err := renderFunnelChart(labels, values)
	if err != nil {
		return err
	}
	fname := "funnel_" + strconv.FormatInt(time.Now().UnixNano(), 10) + ".png"
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: fname, Bytes: png})
	_, err = h.bot.Send(photo)
	return err
}

func renderFunnelChart(labels []string, values []int) ([]byte, error) {
	if len(labels) != len(values) {
		return nil, fmt.Errorf("funnel chart: %d labels for %d values", len(labels), len(values))
	}
	bars := make([]chart.Value, 0, len(labels))
	maxVal := 0
	for i := range labels {
		v := values[i]
		if v > maxVal {
			maxVal = v
		}
		bars = append(bars, chart.Value{Value: float64(v), Label: labels[i]})
	}
	// go-chart rejects an empty range
	yMax := float64(maxVal)
	if yMax <= 0 {
		yMax = 1
	}
	graph := chart.BarChart{
		Width:    800,
		Height:   500,
		BarWidth: 80,
		Background: chart.Style{Padding: chart.Box{
			Top:    50,
			Left:   16,
			Right:  16,
			Bottom: 0,
		}},
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: yMax}},
		Bars:  bars,
	}
	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func profileOf(u *tgbotapi.User) domain.Profile {
	return domain.Profile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.UserName,
		IsBot:     u.IsBot,
	}
}

func chatOf(c *tgbotapi.Chat) domain.Chat {
	return domain.Chat{ID: c.ID, Kind: domain.ChatKind(c.Type), Title: c.Title}
}
