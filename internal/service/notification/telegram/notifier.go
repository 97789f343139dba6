// Package telegram 텔레그램 봇으로 알림 메시지를 보내는 Notifier를 제공합니다.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/darkkaiser/band-order-server/internal/config"
	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
	"github.com/darkkaiser/band-order-server/internal/service/contract"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
	"github.com/darkkaiser/band-order-server/pkg/strutil"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// component 로깅용 컴포넌트 이름
const component = "notification.telegram"

const (
	// maxMessageRunes 텔레그램 메시지 한 건의 최대 길이
	maxMessageRunes = 4096

	// maxTitleRunes 제목은 HTML 태그가 분할 경계에 걸리지 않도록 짧게 자릅니다.
	maxTitleRunes = 200

	maxRetries        = 3
	defaultRetryDelay = time.Second

	titleFormat = "<b>【 %s 】</b>\n\n%s"
	errorFormat = "%s\n\n*** 오류가 발생하였습니다. ***"
)

// botClient tgbotapi.BotAPI에서 사용하는 메서드
type botClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier 채팅방 하나로 메시지를 보내는 텔레그램 알림 채널
type Notifier struct {
	id     string
	chatID int64
	bot    botClient

	// limiter 텔레그램의 채팅방별 전송 제한(초당 1건)을 지킵니다.
	limiter    *rate.Limiter
	retryDelay time.Duration
}

// New 봇 토큰으로 텔레그램 API에 연결하여 Notifier를 생성합니다.
func New(cfg config.TelegramConfig) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("텔레그램 봇 초기화에 실패하였습니다 (notifier_id: %s)", cfg.ID))
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"notifier_id":  cfg.ID,
		"bot_username": bot.Self.UserName,
		"chat_id":      cfg.ChatID,
	}).Info("텔레그램 봇 연결됨")

	return newNotifier(cfg.ID, cfg.ChatID, bot), nil
}

func newNotifier(id string, chatID int64, bot botClient) *Notifier {
	return &Notifier{
		id:         id,
		chatID:     chatID,
		bot:        bot,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		retryDelay: defaultRetryDelay,
	}
}

func (n *Notifier) ID() string {
	return n.id
}

// Send 알림을 HTML 메시지로 만들어 전송합니다. 길이 제한을 넘는 메시지는 줄 단위로 나누어 보냅니다.
func (n *Notifier) Send(ctx context.Context, notification contract.Notification) error {
	for _, chunk := range splitMessage(buildMessage(notification), maxMessageRunes) {
		if err := n.sendChunk(ctx, chunk, true); err != nil {
			return err
		}
	}
	return nil
}

// buildMessage 제목과 오류 표시를 덧붙입니다. 본문은 호출자가 이스케이프한 HTML로 간주합니다.
func buildMessage(notification contract.Notification) string {
	message := notification.Message
	if notification.Title != "" {
		title := html.EscapeString(strutil.FirstLine(notification.Title, maxTitleRunes))
		message = fmt.Sprintf(titleFormat, title, message)
	}
	if notification.ErrorOccurred {
		message = fmt.Sprintf(errorFormat, message)
	}
	return message
}

func (n *Notifier) sendChunk(ctx context.Context, text string, useHTML bool) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if useHTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := n.bot.Send(msg)
		if err == nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"notifier_id": n.id,
				"chat_id":     n.chatID,
				"attempt":     attempt,
				"html":        useHTML,
			}).Debug("텔레그램 메시지 전송 성공")
			return nil
		}

		lastErr = err
		code, retryAfter := errorCode(err)

		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id": n.id,
			"chat_id":     n.chatID,
			"attempt":     attempt,
			"code":        code,
			"html":        useHTML,
		}).WithError(err).Warn("텔레그램 메시지 전송 실패")

		// HTML 파싱 오류는 일반 텍스트로 한 번 더 보냅니다.
		if useHTML && code == 400 {
			return n.sendChunk(ctx, text, false)
		}
		if !retryable(code) || attempt == maxRetries {
			break
		}

		wait := n.retryDelay
		if retryAfter > 0 {
			wait = time.Duration(retryAfter) * time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return apperrors.Wrap(lastErr, apperrors.Unavailable, fmt.Sprintf("텔레그램 메시지 전송에 실패하였습니다 (notifier_id: %s)", n.id))
}

// errorCode 텔레그램 API 에러의 코드와 Retry-After 값을 추출합니다.
func errorCode(err error) (code int, retryAfter int) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.ResponseParameters.RetryAfter
	}
	var apiErrValue tgbotapi.Error
	if errors.As(err, &apiErrValue) {
		return apiErrValue.Code, apiErrValue.ResponseParameters.RetryAfter
	}
	return 0, 0
}

// retryable 429를 제외한 4xx는 다시 보내도 같은 결과이므로 재시도하지 않습니다.
func retryable(code int) bool {
	if code >= 400 && code < 500 {
		return code == 429
	}
	return true
}
