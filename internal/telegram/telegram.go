// Package telegram hosts the Telegram client, routing, and handlers.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"tg_survey_bot/internal/access"
	"tg_survey_bot/internal/config"
	"tg_survey_bot/internal/domain"
	"tg_survey_bot/internal/feature/survey"
	"tg_survey_bot/internal/logging"
	"tg_survey_bot/internal/metrics"
)

// Callback payloads for the inline answer buttons.
const (
	CallbackAnswerYes = "answer_yes"
	CallbackAnswerNo  = "answer_no"
)

// Transport-level reply texts for outcomes the survey service reports as
// errors.
const (
	failureText        = "Something went wrong. Please try again later."
	notRegisteredToast = "Press /start to take the survey first."
)

type botRunner interface {
	Start(ctx context.Context)
}

// telegramAPI captures the subset of bot.Bot methods handlers call, so tests
// can substitute a fake without a live Telegram connection.
type telegramAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
}

// surveyService is the transport-facing contract of the survey feature.
type surveyService interface {
	Start(ctx context.Context, actor survey.Actor) (survey.Prompt, error)
	Answer(ctx context.Context, actorID int64, answer domain.Answer) (survey.Confirmation, error)
	Help(actorID int64) (string, error)
	Stats(ctx context.Context, actorID int64) (string, error)
	Users(ctx context.Context, actorID int64) (string, error)
	Unrecognized() string
}

var (
	defaultAllowedUpdates = bot.AllowedUpdates{
		"message",
		"edited_message",
		"callback_query",
	}

	createBot = func(token string, options ...bot.Option) (botRunner, error) {
		return bot.New(token, options...)
	}
)

// Client wraps the Telegram bot instance and the survey service it routes to.
type Client struct {
	bot    botRunner
	logger *logrus.Entry
	survey surveyService
}

// Option customizes the Client during construction.
type Option func(*Client)

// WithSurvey injects the survey service the handlers route to.
func WithSurvey(svc surveyService) Option {
	return func(c *Client) {
		c.survey = svc
	}
}

// NewClient initializes the Telegram bot with long polling and the survey
// command and callback handlers.
func NewClient(cfg config.Config, logger *logrus.Entry, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return nil, errors.New("telegram token is required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	client := &Client{logger: logger}
	for _, opt := range opts {
		opt(client)
	}

	if client.survey == nil {
		return nil, errors.New("survey service is required")
	}

	tgBot, err := createBot(cfg.TelegramToken,
		bot.WithAllowedUpdates(defaultAllowedUpdates),
		bot.WithMiddlewares(countUpdates),
		bot.WithDefaultHandler(client.handleDefault),
		bot.WithErrorsHandler(errorHandler(logger)),
		bot.WithMessageTextHandler("/start", bot.MatchTypePrefix, client.handleStart),
		bot.WithMessageTextHandler("/help", bot.MatchTypePrefix, client.handleHelp),
		bot.WithMessageTextHandler("/stats", bot.MatchTypePrefix, client.handleStats),
		bot.WithMessageTextHandler("/users", bot.MatchTypePrefix, client.handleUsers),
		bot.WithCallbackQueryDataHandler(CallbackAnswerYes, bot.MatchTypeExact, client.handleAnswerYes),
		bot.WithCallbackQueryDataHandler(CallbackAnswerNo, bot.MatchTypeExact, client.handleAnswerNo),
	)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot client: %w", err)
	}

	client.bot = tgBot
	return client, nil
}

// Start begins receiving updates via long polling until the context is canceled.
func (c *Client) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger.WithFields(logging.Fields{
		"event":           "telegram_listen",
		"allowed_updates": defaultAllowedUpdates,
	}).Info("starting telegram long polling")

	c.bot.Start(ctx)

	c.logger.WithField("event", "telegram_stopped").Info("telegram polling stopped")
}

func (c *Client) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.start(ctx, b, update)
}

func (c *Client) start(ctx context.Context, api telegramAPI, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	chatID := update.Message.Chat.ID

	actor := survey.Actor{
		ID:        from.ID,
		Username:  from.Username,
		FirstName: from.FirstName,
	}

	prompt, err := c.survey.Start(ctx, actor)
	if err != nil {
		c.replyError(ctx, api, chatID, from.ID, "start", err)
		return
	}

	_, err = api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        prompt.Text,
		ReplyMarkup: answerKeyboard(prompt.Options),
	})
	if err != nil {
		c.logSendError(from.ID, chatID, "start", err)
		return
	}

	c.logger.WithFields(logging.Fields{
		"event":      "survey_prompted",
		"user_id":    from.ID,
		"registered": prompt.Registered,
	}).Info("sent survey prompt")
}

func (c *Client) handleAnswerYes(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.answer(ctx, b, update, domain.AnswerYes)
}

func (c *Client) handleAnswerNo(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.answer(ctx, b, update, domain.AnswerNo)
}

func (c *Client) answer(ctx context.Context, api telegramAPI, update *models.Update, answer domain.Answer) {
	if update == nil || update.CallbackQuery == nil {
		return
	}

	cq := update.CallbackQuery
	userID := cq.From.ID

	confirmation, err := c.survey.Answer(ctx, userID, answer)
	if err != nil {
		toast := ""
		switch {
		case errors.Is(err, access.ErrDenied):
			c.logger.WithFields(logging.Fields{
				"event":   "answer_denied",
				"user_id": userID,
			}).Info("refused answer from banned user")
		case errors.Is(err, survey.ErrNotRegistered):
			toast = notRegisteredToast
			c.logger.WithFields(logging.Fields{
				"event":   "answer_unregistered",
				"user_id": userID,
			}).Warn("answer submitted before registration")
		default:
			toast = failureText
			c.logger.WithFields(logging.Fields{
				"event":   "answer_failed",
				"user_id": userID,
			}).WithError(err).Error("failed to record answer")
		}

		c.ackCallback(ctx, api, cq.ID, toast)
		return
	}

	c.ackCallback(ctx, api, cq.ID, confirmation.Toast)

	chatID := messageChatID(cq.Message)
	msgID := messageID(cq.Message)
	if chatID == 0 || msgID == 0 {
		return
	}

	if _, err := api.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: msgID,
		Text:      confirmation.Recorded,
	}); err != nil {
		c.logSendError(userID, chatID, "answer", err)
	}
}

func (c *Client) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.help(ctx, b, update)
}

func (c *Client) help(ctx context.Context, api telegramAPI, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	chatID := update.Message.Chat.ID

	text, err := c.survey.Help(from.ID)
	if err != nil {
		c.replyError(ctx, api, chatID, from.ID, "help", err)
		return
	}

	c.reply(ctx, api, chatID, from.ID, "help", text)
}

func (c *Client) handleStats(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.stats(ctx, b, update)
}

func (c *Client) stats(ctx context.Context, api telegramAPI, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	chatID := update.Message.Chat.ID

	report, err := c.survey.Stats(ctx, from.ID)
	if err != nil {
		c.replyError(ctx, api, chatID, from.ID, "stats", err)
		return
	}

	c.reply(ctx, api, chatID, from.ID, "stats", report)
}

func (c *Client) handleUsers(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.users(ctx, b, update)
}

func (c *Client) users(ctx context.Context, api telegramAPI, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	chatID := update.Message.Chat.ID

	report, err := c.survey.Users(ctx, from.ID)
	if err != nil {
		c.replyError(ctx, api, chatID, from.ID, "users", err)
		return
	}

	c.reply(ctx, api, chatID, from.ID, "users", report)
}

func (c *Client) handleDefault(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.fallback(ctx, b, update)
}

func (c *Client) fallback(ctx context.Context, api telegramAPI, update *models.Update) {
	if update == nil {
		return
	}

	meta := extractUpdateMeta(update)

	fields := logging.Fields{
		"event":       "telegram_update",
		"update_type": meta.updateType,
	}
	if meta.text != "" {
		fields["text"] = meta.text
	}
	if meta.userID != 0 {
		fields["user_id"] = meta.userID
	}
	if meta.chatID != 0 {
		fields["chat_id"] = meta.chatID
	}

	c.logger.WithFields(fields).Info("unrecognized telegram update")

	if update.Message == nil || meta.chatID == 0 {
		return
	}

	c.reply(ctx, api, meta.chatID, meta.userID, "fallback", c.survey.Unrecognized())
}

// replyError renders a service error back to the chat. A denied actor gets the
// same fallback text an unknown command gets, matching the router's behavior
// of not acknowledging gated commands; everything else is a storage-level
// fault and gets a generic failure notice.
func (c *Client) replyError(ctx context.Context, api telegramAPI, chatID, userID int64, command string, err error) {
	if errors.Is(err, access.ErrDenied) {
		c.logger.WithFields(logging.Fields{
			"event":   "command_denied",
			"command": command,
			"user_id": userID,
		}).Info("refused command")

		c.reply(ctx, api, chatID, userID, command, c.survey.Unrecognized())
		return
	}

	c.logger.WithFields(logging.Fields{
		"event":   "command_failed",
		"command": command,
		"user_id": userID,
	}).WithError(err).Error("command failed")

	c.reply(ctx, api, chatID, userID, command, failureText)
}

func (c *Client) reply(ctx context.Context, api telegramAPI, chatID, userID int64, command, text string) {
	if _, err := api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}); err != nil {
		c.logSendError(userID, chatID, command, err)
	}
}

func (c *Client) ackCallback(ctx context.Context, api telegramAPI, callbackID, text string) {
	if _, err := api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	}); err != nil {
		c.logger.WithField("event", "callback_ack_failed").WithError(err).Warn("failed to acknowledge callback")
	}
}

func (c *Client) logSendError(userID, chatID int64, command string, err error) {
	c.logger.WithFields(logging.Fields{
		"event":   "telegram_send_failed",
		"command": command,
		"user_id": userID,
		"chat_id": chatID,
	}).WithError(err).Error("failed to deliver reply")
}

// answerKeyboard renders the closed answer options as one row of inline
// buttons.
func answerKeyboard(options []domain.Answer) *models.InlineKeyboardMarkup {
	row := make([]models.InlineKeyboardButton, 0, len(options))
	for _, option := range options {
		row = append(row, models.InlineKeyboardButton{
			Text:         string(option),
			CallbackData: callbackData(option),
		})
	}

	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{row},
	}
}

func callbackData(answer domain.Answer) string {
	if answer == domain.AnswerYes {
		return CallbackAnswerYes
	}
	return CallbackAnswerNo
}

func countUpdates(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update != nil {
			metrics.UpdatesReceived.WithLabelValues(extractUpdateMeta(update).updateType).Inc()
		}
		next(ctx, b, update)
	}
}

type updateMeta struct {
	userID     int64
	chatID     int64
	text       string
	updateType string
}

func extractUpdateMeta(update *models.Update) updateMeta {
	switch {
	case update.Message != nil:
		return updateMeta{
			userID:     userID(update.Message.From),
			chatID:     update.Message.Chat.ID,
			text:       strings.TrimSpace(update.Message.Text),
			updateType: "message",
		}
	case update.EditedMessage != nil:
		return updateMeta{
			userID:     userID(update.EditedMessage.From),
			chatID:     update.EditedMessage.Chat.ID,
			text:       strings.TrimSpace(update.EditedMessage.Text),
			updateType: "edited_message",
		}
	case update.CallbackQuery != nil:
		return updateMeta{
			userID:     update.CallbackQuery.From.ID,
			chatID:     messageChatID(update.CallbackQuery.Message),
			text:       strings.TrimSpace(update.CallbackQuery.Data),
			updateType: "callback_query",
		}
	default:
		return updateMeta{updateType: "unknown"}
	}
}

func errorHandler(logger *logrus.Entry) bot.ErrorsHandler {
	if logger == nil {
		logger = logging.Logger()
	}

	return func(err error) {
		if err == nil {
			return
		}

		logger.WithField("event", "telegram_error").WithError(err).Error("telegram polling error")
	}
}

func userID(user *models.User) int64 {
	if user == nil {
		return 0
	}

	return user.ID
}

func messageChatID(msg models.MaybeInaccessibleMessage) int64 {
	switch msg.Type {
	case models.MaybeInaccessibleMessageTypeMessage:
		if msg.Message == nil {
			return 0
		}
		return msg.Message.Chat.ID
	case models.MaybeInaccessibleMessageTypeInaccessibleMessage:
		if msg.InaccessibleMessage == nil {
			return 0
		}
		return msg.InaccessibleMessage.Chat.ID
	default:
		return 0
	}
}

func messageID(msg models.MaybeInaccessibleMessage) int {
	switch msg.Type {
	case models.MaybeInaccessibleMessageTypeMessage:
		if msg.Message == nil {
			return 0
		}
		return msg.Message.ID
	case models.MaybeInaccessibleMessageTypeInaccessibleMessage:
		if msg.InaccessibleMessage == nil {
			return 0
		}
		return msg.InaccessibleMessage.MessageID
	default:
		return 0
	}
}
