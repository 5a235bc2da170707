package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Kind 标识消息类别, 用于日志与指标。
type Kind string

const (
	KindBuy          Kind = "buy"
	KindSell         Kind = "sell"
	KindMonitoring   Kind = "monitoring"
	KindFetchFailure Kind = "fetch_failure"
	KindDonation     Kind = "donation"
)

// Message 封装一条待发送的 HTML 文本。
type Message struct {
	Kind Kind
	Pair string
	Text string
}

// Notifier 定义告警输送接口。
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// RetryAfterError signals that the destination is rate limiting and the
// identical message may be retried after Wait.
type RetryAfterError struct {
	Wait time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.Wait)
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 告警器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Send 调用 sendMessage API 推送 HTML 文本。
func (n *TelegramNotifier) Send(ctx context.Context, msg Message) error {
	payload := map[string]any{
		"chat_id":                  n.chatID,
		"text":                     msg.Text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read telegram response: %w", err)
	}

	var result telegramResponse
	decodeErr := json.Unmarshal(raw, &result)

	if resp.StatusCode == http.StatusTooManyRequests {
		wait := time.Second
		if decodeErr == nil && result.Parameters.RetryAfter > 0 {
			wait = time.Duration(result.Parameters.RetryAfter) * time.Second
		}
		return &RetryAfterError{Wait: wait}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && result.Description != "" {
			return fmt.Errorf("telegram 响应码异常: %d: %s", resp.StatusCode, result.Description)
		}
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}
	if decodeErr == nil && !result.OK {
		return fmt.Errorf("telegram 返回 ok=false: %s", result.Description)
	}

	n.logger.Info().Str("kind", string(msg.Kind)).Str("pair", msg.Pair).Msg("告警已发送 (Telegram)")
	return nil
}

// LogNotifier writes messages to the log instead of a remote channel. It is
// used when Telegram delivery is disabled.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier constructs a log-only notifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "alert_log").Logger()}
}

// Send logs the message.
func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info().Str("kind", string(msg.Kind)).Str("pair", msg.Pair).Str("text", msg.Text).Msg("alert")
	return nil
}

var (
	_ Notifier = (*TelegramNotifier)(nil)
	_ Notifier = (*LogNotifier)(nil)
)
