package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ai-workout-coach/internal/config"
	"ai-workout-coach/internal/engine"
	"ai-workout-coach/internal/export"
	"ai-workout-coach/internal/metrics"
	"ai-workout-coach/internal/shared"
	"ai-workout-coach/internal/workout"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// adaptSessionTTLSeconds is how long the bot waits for feedback after /adapt.
const adaptSessionTTLSeconds = 15 * 60

// Bot wraps the Telegram API around the workout workflow engine.
type Bot struct {
	api          *tgbotapi.BotAPI
	engine       *engine.Engine
	repo         *workout.Repository
	sessions     *SessionRepository
	metricsStore *metrics.Store
	cfg          *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	eng *engine.Engine,
	repo *workout.Repository,
	sessions *SessionRepository,
	metricsStore *metrics.Store,
) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          bot,
		engine:       eng,
		repo:         repo,
		sessions:     sessions,
		metricsStore: metricsStore,
		cfg:          cfg,
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}
	if update.Message == nil {
		return
	}

	isAllowed := false
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if update.Message.From.ID == id {
			isAllowed = true
			break
		}
	}
	if !isAllowed {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	switch {
	case text == "/start" || text == "/help":
		b.sendMarkdown(msg.Chat.ID, helpText)
	case text == "/plan" || strings.HasPrefix(text, "/plan "):
		b.handlePlanCommand(msg)
	case text == "/current":
		b.handleCurrentCommand(msg)
	case text == "/adapt":
		b.handleAdaptCommand(msg)
	case text == "/metrics":
		b.handleMetricsRequest(msg)
	default:
		b.handleFreeText(msg)
	}
}

func (b *Bot) handlePlanCommand(msg *tgbotapi.Message) {
	userID := fmt.Sprintf("%d", msg.From.ID)
	ctx := context.Background()

	week := 1
	if fields := strings.Fields(msg.Text); len(fields) > 1 {
		if n, err := strconv.Atoi(fields[1]); err == nil && n >= 1 {
			week = n
		}
	}

	sentMsg, err := b.api.Send(markdownMessage(msg.Chat.ID, "💪 *Building your plan...*"))
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	plan, metas, err := b.engine.GeneratePlan(ctx, userID, week)
	b.recordMetas(metas)
	if err != nil {
		b.editMarkdown(msg.Chat.ID, sentMsg.MessageID, commandError("generating plan", err))
		return
	}

	b.editMarkdown(msg.Chat.ID, sentMsg.MessageID, FormatPlanMarkdown(plan))
}

func (b *Bot) handleCurrentCommand(msg *tgbotapi.Message) {
	userID := fmt.Sprintf("%d", msg.From.ID)
	ctx := context.Background()

	plan, err := b.repo.GetCurrentPlan(ctx, userID)
	if err != nil {
		b.sendMarkdown(msg.Chat.ID, commandError("loading plan", err))
		return
	}
	if plan == nil {
		b.sendMarkdown(msg.Chat.ID, "No plan yet. Send /plan to generate your first week.")
		return
	}
	b.sendMarkdown(msg.Chat.ID, FormatPlanMarkdown(plan))
}

// handleAdaptCommand opens a session: the next free-text message is treated
// as the week's feedback and drives the adaptation.
func (b *Bot) handleAdaptCommand(msg *tgbotapi.Message) {
	userID := fmt.Sprintf("%d", msg.From.ID)
	ctx := context.Background()

	plan, err := b.repo.GetCurrentPlan(ctx, userID)
	if err != nil {
		b.sendMarkdown(msg.Chat.ID, commandError("loading plan", err))
		return
	}
	if plan == nil {
		b.sendMarkdown(msg.Chat.ID, "No plan to adapt yet. Send /plan first.")
		return
	}

	_, err = b.sessions.Create(ctx, userID, SessionAdaptFeedback, "awaiting_feedback",
		SessionContextData{WeekNumber: plan.WeekNumber}, adaptSessionTTLSeconds)
	if err != nil {
		b.sendMarkdown(msg.Chat.ID, commandError("starting adaptation", err))
		return
	}

	b.sendMarkdown(msg.Chat.ID,
		"🗒 *How did this week go?*\nTell me about energy, soreness, pain, or schedule problems — or send `skip` to adapt on the numbers alone.")
}

func (b *Bot) handleFreeText(msg *tgbotapi.Message) {
	userID := fmt.Sprintf("%d", msg.From.ID)
	ctx := context.Background()

	session, err := b.sessions.GetActive(ctx, userID, time.Now())
	if err != nil {
		log.Printf("Error loading session for %s: %v", userID, err)
	}
	if session == nil || session.SessionType != SessionAdaptFeedback {
		b.sendMarkdown(msg.Chat.ID, helpText)
		return
	}

	data, err := session.GetContextData()
	if err != nil {
		log.Printf("Error reading session context for %s: %v", userID, err)
		_ = b.sessions.Delete(ctx, session.ID)
		b.sendMarkdown(msg.Chat.ID, helpText)
		return
	}
	_ = b.sessions.Delete(ctx, session.ID)

	feedback := msg.Text
	if strings.EqualFold(strings.TrimSpace(feedback), "skip") {
		feedback = ""
	}

	sentMsg, err := b.api.Send(markdownMessage(msg.Chat.ID, "🔁 *Adapting your plan...*"))
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	result, metas, err := b.engine.AdaptPlan(ctx, userID, data.WeekNumber, feedback)
	b.recordMetas(metas)
	if err != nil {
		b.editMarkdown(msg.Chat.ID, sentMsg.MessageID, commandError("adapting plan", err))
		return
	}

	b.editMarkdown(msg.Chat.ID, sentMsg.MessageID, FormatAdaptationMarkdown(result))
	if result.NextPlan != nil {
		b.sendMarkdown(msg.Chat.ID, FormatPlanMarkdown(result.NextPlan))
	}
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.sendMarkdown(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}

	usage, err := b.metricsStore.GetDailyUsage(context.Background(), 7)
	if err != nil {
		b.sendMarkdown(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}
	health := metrics.Snapshot(b.cfg.DatabasePath, b.cfg.ExportsPath)

	var sb strings.Builder
	sb.WriteString("📊 *Coach Usage & Health*\n\n")
	sb.WriteString("🗓 *Model Calls (last 7 days)*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens over %d calls\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}
	sb.WriteString("\n🧠 *Process*\n")
	sb.WriteString(fmt.Sprintf("• Heap: %dMB alloc / %dMB sys\n", health.HeapAllocMB, health.HeapSysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Plan DB: %s, calendars: %s\n", health.DatabaseSize, health.ExportsSize))

	b.sendMarkdown(msg.Chat.ID, sb.String())
}

func (b *Bot) recordMetas(metas []shared.AgentMeta) {
	for _, m := range metas {
		if err := b.metricsStore.RecordMeta(context.Background(), m); err != nil {
			log.Printf("Warning: failed to record metric: %v", err)
		}
		if m.Usage.PromptTokens > 4000 {
			b.sendAdminAlert(fmt.Sprintf("⚠️ *Context Bloat Alert*\nAgent: %s\nModel: %s\nPrompt Tokens: %d",
				m.AgentName, m.Usage.Model, m.Usage.PromptTokens))
		}
	}
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	b.api.Send(markdownMessage(b.cfg.AdminTelegramID, text))
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	if _, err := b.api.Send(markdownMessage(chatID, text)); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

func (b *Bot) editMarkdown(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = "Markdown"
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Failed to edit message: %v", err)
	}
}

func markdownMessage(chatID int64, text string) tgbotapi.MessageConfig {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = "Markdown"
	return m
}

const helpText = `🏋️ *Workout Coach*

/plan [week] — generate a training plan
/current — show your current plan
/adapt — adapt next week from this week's results
/metrics — usage report (admin)`

func commandError(action string, err error) string {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *Error %s:*\n```\n%v\n```", action, safeErr)
}

// FormatPlanMarkdown renders a plan for Telegram.
func FormatPlanMarkdown(plan *workout.WorkoutPlan) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Week %d Training Plan*\n\n", plan.WeekNumber))

	for _, day := range plan.Days {
		sb.WriteString(fmt.Sprintf("*%s* — %s (%d min)\n",
			titleCase(string(day.Day)), export.FocusTitle(day.Focus), day.EstimatedDuration))
		for _, ex := range day.Exercises {
			sb.WriteString(fmt.Sprintf("• %s: %d x %s, RPE %d\n", ex.ExerciseName, ex.Sets, ex.Reps, ex.TargetRPE))
		}
		sb.WriteString("\n")
	}

	if plan.AdaptationRationale != "" {
		sb.WriteString(fmt.Sprintf("_%s_\n", plan.AdaptationRationale))
	}
	return sb.String()
}

// FormatAdaptationMarkdown renders an adaptation outcome for Telegram.
func FormatAdaptationMarkdown(result *engine.AdaptationResult) string {
	var sb strings.Builder
	sb.WriteString("🔁 *Plan Adapted*\n\n")
	sb.WriteString(result.Rationale)
	sb.WriteString("\n")

	if len(result.KeyChanges) > 0 {
		sb.WriteString("\n*Key changes:*\n")
		for _, c := range result.KeyChanges {
			sb.WriteString(fmt.Sprintf("• %s\n", c))
		}
	}
	if result.Metrics != nil {
		sb.WriteString(fmt.Sprintf("\n*Last week:* %d/%d sessions, average RPE %.1f\n",
			result.Metrics.CompletedSessions, result.Metrics.TotalPlannedSessions, result.Metrics.AverageRPE))
	}
	return sb.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
