package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"subscriber-relay-bot/internal/domain"
)

const (
	TextWelcomeWithApp     = "Xush kelibsiz! Web ilovani ochish uchun quyidagi tugmani bosing:"
	TextWelcomeAskContact  = "Xush kelibsiz! Web ilovani ochishdan oldin iltimos, telefon raqamingizni ulashing:"
	TextContactAccepted    = "Raqamingiz qabul qilindi. Web ilovani ochish uchun quyidagi tugmani bosing:"
	TextContinue           = "Davom etishingiz mumkin."
	TextPermissionDenied   = "Sizga bu buyruqni ishlatishga ruxsat berilmagan."
	subscriberCountPattern = "📊 Faol obunachilar soni: %d"
	privateChatLabel       = "Shaxsiy Chat"
)

type adminNotifier interface {
	NotifyAdmin(ctx context.Context, text string) error
}

// Relay turns inbound chat events into registry updates, admin notifications
// and replies for the user.
type Relay struct {
	registry *UserRegistry
	notifier adminNotifier
	sessions domain.SessionRepository
	funnel   *FunnelUsecase
	adminID  int64
	logger   *slog.Logger
}

func NewRelay(registry *UserRegistry, notifier adminNotifier, sessions domain.SessionRepository, adminID int64, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		registry: registry,
		notifier: notifier,
		sessions: sessions,
		adminID:  adminID,
		logger:   logger,
	}
}

func (r *Relay) SetFunnel(f *FunnelUsecase) { r.funnel = f }

func (r *Relay) IsAdmin(userID int64) bool { return userID == r.adminID }

// OnSessionStart registers the user and either offers the web app or asks for
// the phone number, depending on whether the contact was shared this session.
func (r *Relay) OnSessionStart(ctx context.Context, user domain.Profile) []domain.Reply {
	r.register(ctx, user.ID)
	r.trackFunnel(user.ID, domain.StepStarted)

	shared, err := r.sessions.ContactShared(ctx, user.ID)
	if err != nil {
		r.logger.Error("session lookup failed", "user_id", user.ID, "error", err)
	}
	if shared {
		return []domain.Reply{{Text: TextWelcomeWithApp, Markup: domain.MarkupWebApp}}
	}
	return []domain.Reply{{Text: TextWelcomeAskContact, Markup: domain.MarkupRequestContact}}
}

func (r *Relay) OnContactShared(ctx context.Context, user domain.Profile, phone string, chat domain.Chat) []domain.Reply {
	seq, ok := r.register(ctx, user.ID)

	if err := r.sessions.MarkContactShared(ctx, user.ID); err != nil {
		r.logger.Error("session update failed", "user_id", user.ID, "error", err)
	}
	r.trackFunnel(user.ID, domain.StepContactShared)

	text := fmt.Sprintf("🎉 Yangi foydalanuvchi ma'lumotlari: %s (ID: %d), Raqami: %s\nTelefon raqami: %s\nChat: %s",
		user.DisplayName(), user.ID, numberLabel(seq, ok), phone, chatLabel(chat))
	if err := r.notifier.NotifyAdmin(ctx, text); err == nil {
		r.logger.Info("admin notified about contact", "user_id", user.ID, "number", seq)
	}

	return []domain.Reply{
		{Text: TextContactAccepted, Markup: domain.MarkupWebApp},
		{Text: TextContinue, Markup: domain.MarkupRemoveKeyboard},
	}
}

// OnMembersJoined notifies the admin about every human member added to a
// group. It returns the number of notifications attempted.
func (r *Relay) OnMembersJoined(ctx context.Context, chat domain.Chat, members []domain.Profile) int {
	if !chat.IsGroup() {
		return 0
	}
	sent := 0
	for _, m := range members {
		if m.IsBot {
			continue
		}
		seq, ok := r.register(ctx, m.ID)
		r.trackFunnel(m.ID, domain.StepJoinedGroup)

		text := fmt.Sprintf("🎉 Yangi foydalanuvchi qo'shildi: %s (ID: %d), Raqami: %s\nGuruh/Shaxsiy Chat: %s",
			m.DisplayName(), m.ID, numberLabel(seq, ok), chatLabel(chat))
		_ = r.notifier.NotifyAdmin(ctx, text)
		sent++
	}
	return sent
}

func (r *Relay) OnAdminQuery(userID int64) domain.Reply {
	if !r.IsAdmin(userID) {
		r.logger.Warn("admin query denied", "user_id", userID)
		return domain.Reply{Text: TextPermissionDenied}
	}
	return domain.Reply{Text: fmt.Sprintf(subscriberCountPattern, r.registry.Count())}
}

// register never fails the caller: a persist error is logged and reported as ok=false.
func (r *Relay) register(ctx context.Context, userID int64) (int, bool) {
	seq, created, err := r.registry.EnsureRegistered(ctx, userID)
	if err != nil {
		r.logger.Error("registry update failed", "user_id", userID, "error", err)
		return 0, false
	}
	if created {
		r.logger.Info("user registered", "user_id", userID, "number", seq)
	}
	return seq, true
}

func (r *Relay) trackFunnel(userID int64, step domain.FunnelStep) {
	if r.funnel == nil {
		return
	}
	if err := r.funnel.Reach(userID, step); err != nil {
		r.logger.Warn("funnel hit failed", "user_id", userID, "step", step, "error", err)
	}
}

func numberLabel(seq int, ok bool) string {
	if !ok {
		return "?"
	}
	return strconv.Itoa(seq)
}

func chatLabel(chat domain.Chat) string {
	if chat.Title != "" {
		return chat.Title
	}
	return privateChatLabel
}
