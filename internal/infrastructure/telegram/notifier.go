package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"AINewsBrief/internal/ports"
)

const (
	// MaxMessageLength is the Bot API hard limit for one message.
	MaxMessageLength = 4096
	// chunkLength leaves headroom for Markdown entities when a report is split.
	chunkLength = MaxMessageLength - 100

	defaultAPIBase = "https://api.telegram.org"
	errorPrefix    = "⚠️ Error in AI News Brief\n\n"
)

// Notifier sends reports to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
	pause    time.Duration
	logger   *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier. An empty apiBase targets api.telegram.org.
func NewNotifier(botToken, chatID, apiBase string, client *http.Client, log *slog.Logger) *Notifier {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  strings.TrimSuffix(apiBase, "/"),
		client:   client,
		pause:    500 * time.Millisecond,
		logger:   log,
	}
}

// Send posts the report as Markdown, splitting it on line boundaries when it exceeds the limit.
// It returns the message id of the last chunk.
func (n *Notifier) Send(ctx context.Context, text string) (int64, error) {
	if err := n.validate(); err != nil {
		return 0, err
	}

	chunks := []string{text}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		chunks = SplitMessage(text, chunkLength)
	}
	var lastID int64
	for i, chunk := range chunks {
		if i > 0 {
			if err := sleep(ctx, n.pause); err != nil {
				return lastID, err
			}
		}
		id, err := n.sendMessage(ctx, chunk, true)
		if err != nil {
			return lastID, fmt.Errorf("send chunk %d/%d: %w", i+1, len(chunks), err)
		}
		lastID = id
	}
	n.logger.Info("report delivered", "chunks", len(chunks), "message_id", lastID)
	return lastID, nil
}

// SendError posts a plain-text failure notice.
func (n *Notifier) SendError(ctx context.Context, message string) error {
	if err := n.validate(); err != nil {
		return err
	}
	_, err := n.sendMessage(ctx, errorPrefix+message, false)
	return err
}

func (n *Notifier) validate() error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}
	return nil
}

type sendResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (n *Notifier) sendMessage(ctx context.Context, text string, markdown bool) (int64, error) {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	form.Set("disable_web_page_preview", "true")
	if markdown {
		form.Set("parse_mode", "Markdown")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		// The token is part of the URL; keep it out of logs and notices.
		return 0, fmt.Errorf("do request: %s", strings.ReplaceAll(err.Error(), n.botToken, "***"))
	}
	defer resp.Body.Close()

	var body sendResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusOK || !body.OK {
		return 0, fmt.Errorf("telegram error: %s %s", resp.Status, body.Description)
	}
	if decodeErr != nil {
		return 0, fmt.Errorf("decode response: %w", decodeErr)
	}
	return body.Result.MessageID, nil
}

// SplitMessage packs whole lines into chunks of at most limit characters.
// A single line longer than limit is cut by characters as a last resort.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		chunks  []string
		current []string
		size    int
	)
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current, size = nil, 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		for utf8.RuneCountInString(line) > limit {
			flush()
			r := []rune(line)
			chunks = append(chunks, string(r[:limit]))
			line = string(r[limit:])
		}

		n := utf8.RuneCountInString(line)
		if len(current) > 0 && size+1+n > limit {
			flush()
		}
		if len(current) > 0 {
			size++
		}
		current = append(current, line)
		size += n
	}
	flush()
	return chunks
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
