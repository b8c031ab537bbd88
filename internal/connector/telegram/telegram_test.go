package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/soundcrew/houston/internal/connector"
	"github.com/soundcrew/houston/pkg/protocol"
)

// Verify Connector implements both connector roles at compile time.
var (
	_ connector.Connector = (*Connector)(nil)
	_ connector.Replier   = (*Connector)(nil)
)

func TestContains(t *testing.T) {
	ids := []int64{100, 200, 300}

	if !contains(ids, 200) {
		t.Error("expected 200 to be found")
	}
	if contains(ids, 999) {
		t.Error("expected 999 to not be found")
	}
	if contains(nil, 100) {
		t.Error("expected nil slice to return false")
	}
}

func TestEventFromCommand(t *testing.T) {
	update := tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 5,
			From:      &tgbotapi.User{ID: 42, UserName: "sound"},
			Chat:      &tgbotapi.Chat{ID: 42},
			Text:      "/report_play  Гамлет ",
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 12}},
		},
	}

	ev, ok := eventFromUpdate(update)
	if !ok {
		t.Fatal("expected event")
	}
	if ev.Kind != connector.EventMessage {
		t.Errorf("kind = %v", ev.Kind)
	}
	if ev.Command != "report_play" {
		t.Errorf("command = %q", ev.Command)
	}
	if ev.Args != "Гамлет" {
		t.Errorf("args = %q", ev.Args)
	}
	if ev.User.ID != 42 || ev.User.Name != "sound" || ev.MessageID != 5 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestEventFromPlainText(t *testing.T) {
	update := tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 6,
			From:      &tgbotapi.User{ID: 42},
			Chat:      &tgbotapi.Chat{ID: -100},
			Text:      "звук пропал",
		},
	}
	ev, ok := eventFromUpdate(update)
	if !ok {
		t.Fatal("expected event")
	}
	if ev.Command != "" || ev.Text != "звук пропал" || ev.ChatID != -100 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestEventFromCallback(t *testing.T) {
	update := tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			From: &tgbotapi.User{ID: 42},
			Data: "EMP:3",
			Message: &tgbotapi.Message{
				MessageID: 77,
				Chat:      &tgbotapi.Chat{ID: 42},
			},
		},
	}
	ev, ok := eventFromUpdate(update)
	if !ok {
		t.Fatal("expected event")
	}
	if ev.Kind != connector.EventCallback || ev.CallbackID != "cb-1" || ev.Data != "EMP:3" || ev.MessageID != 77 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestEventFromUnsupportedUpdate(t *testing.T) {
	if _, ok := eventFromUpdate(tgbotapi.Update{}); ok {
		t.Error("empty update should be dropped")
	}
	// Inline-mode callbacks carry no message.
	cq := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{ID: "x", From: &tgbotapi.User{ID: 1}}}
	if _, ok := eventFromUpdate(cq); ok {
		t.Error("callback without message should be dropped")
	}
}

func TestInlineMarkup(t *testing.T) {
	kb := &protocol.Keyboard{Rows: [][]protocol.Button{
		{{Text: "a", Data: "EMP:0"}, {Text: "b", Data: "EMP:1"}},
		{{Text: "🟢 Готово", Data: "EMP_DONE"}},
	}}
	markup := inlineMarkup(kb)
	if len(markup.InlineKeyboard) != 2 || len(markup.InlineKeyboard[0]) != 2 {
		t.Fatalf("unexpected layout: %+v", markup.InlineKeyboard)
	}
	btn := markup.InlineKeyboard[1][0]
	if btn.Text != "🟢 Готово" || btn.CallbackData == nil || *btn.CallbackData != "EMP_DONE" {
		t.Errorf("unexpected button: %+v", btn)
	}
}

func TestReplyMarkup(t *testing.T) {
	markup := replyMarkup(&protocol.Menu{Rows: [][]string{{"one"}, {"two", "three"}}})
	if !markup.ResizeKeyboard {
		t.Error("expected resized keyboard")
	}
	if len(markup.Keyboard) != 2 || markup.Keyboard[1][1].Text != "three" {
		t.Errorf("unexpected layout: %+v", markup.Keyboard)
	}
}

func TestWebhookPath(t *testing.T) {
	if got := WebhookPath("123:abc"); got != "/webhook/123:abc" {
		t.Errorf("path = %q", got)
	}
}

func TestWebhookHandlerDispatches(t *testing.T) {
	got := make(chan connector.Event, 1)
	c := &Connector{
		bot:    &tgbotapi.BotAPI{},
		logger: slog.Default(),
		handler: func(_ context.Context, ev connector.Event) error {
			got <- ev
			return nil
		},
	}

	body := `{"update_id":1,"message":{"message_id":3,"from":{"id":9,"is_bot":false,"first_name":"a"},"chat":{"id":9,"type":"private"},"date":0,"text":"hello"}}`
	req := httptest.NewRequest(http.MethodPost, WebhookPath("t"), strings.NewReader(body))
	rec := httptest.NewRecorder()
	c.WebhookHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	select {
	case ev := <-got:
		if ev.Text != "hello" || ev.User.ID != 9 {
			t.Errorf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("handler was not called")
	}
}

func TestWebhookHandlerRejectsGarbage(t *testing.T) {
	c := &Connector{
		bot:     &tgbotapi.BotAPI{},
		logger:  slog.Default(),
		handler: func(context.Context, connector.Event) error { t.Error("handler called"); return nil },
	}
	req := httptest.NewRequest(http.MethodPost, WebhookPath("t"), strings.NewReader("{"))
	rec := httptest.NewRecorder()
	c.WebhookHandler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestAllowFromFilters(t *testing.T) {
	called := false
	c := &Connector{
		bot:     &tgbotapi.BotAPI{},
		config:  Config{AllowFrom: []int64{1}},
		logger:  slog.Default(),
		handler: func(context.Context, connector.Event) error { called = true; return nil },
	}
	c.handleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 2}, Chat: &tgbotapi.Chat{ID: 2}, Text: "hi",
	}})
	if called {
		t.Error("handler should not run for users outside AllowFrom")
	}
}

// fakeBotAPI serves getMe, deleteWebhook and a single getUpdates batch.
func fakeBotAPI(t *testing.T, batch []map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var result any = true
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			result = map[string]any{"id": 1, "is_bot": true, "first_name": "houston", "username": "houston_bot"}
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if r.FormValue("offset") == "" || r.FormValue("offset") == "0" {
				result = batch
			} else {
				time.Sleep(20 * time.Millisecond)
				result = []any{}
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func textUpdate(id int, user int64, text string) map[string]any {
	return map[string]any{
		"update_id": id,
		"message": map[string]any{
			"message_id": id,
			"from":       map[string]any{"id": user, "is_bot": false, "first_name": "u"},
			"chat":       map[string]any{"id": user, "type": "private"},
			"date":       0,
			"text":       text,
		},
	}
}

func TestPollingKeepsPerUserOrder(t *testing.T) {
	const perUser = 20
	var batch []map[string]any
	for i := 1; i <= perUser; i++ {
		batch = append(batch, textUpdate(2*i-1, 7, fmt.Sprintf("m%d", i)))
		batch = append(batch, textUpdate(2*i, 8, fmt.Sprintf("m%d", i)))
	}
	srv := fakeBotAPI(t, batch)

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint("test", srv.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("bot: %v", err)
	}

	var (
		mu   sync.Mutex
		seen = map[int64][]string{}
		done = make(chan struct{})
	)
	c := &Connector{
		bot:    bot,
		config: Config{Mode: ModePolling},
		logger: slog.Default(),
		handler: func(_ context.Context, ev connector.Event) error {
			if ev.Text == "m1" {
				time.Sleep(5 * time.Millisecond)
			}
			mu.Lock()
			defer mu.Unlock()
			seen[ev.User.ID] = append(seen[ev.User.ID], ev.Text)
			if len(seen[7])+len(seen[8]) == 2*perUser {
				close(done)
			}
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- c.Start(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for updates")
	}
	cancel()
	<-errc

	mu.Lock()
	defer mu.Unlock()
	for _, user := range []int64{7, 8} {
		for i, text := range seen[user] {
			if want := fmt.Sprintf("m%d", i+1); text != want {
				t.Fatalf("user %d handled out of order: %v", user, seen[user])
			}
		}
	}
}

func TestUserQueueOrder(t *testing.T) {
	q := newUserQueue()
	var (
		mu  sync.Mutex
		got = map[int64][]int{}
	)
	for i := 0; i < 100; i++ {
		user := int64(i % 3)
		n := i
		q.Do(user, func() {
			mu.Lock()
			got[user] = append(got[user], n)
			mu.Unlock()
		})
	}
	q.Wait()

	for user, ns := range got {
		for i := 1; i < len(ns); i++ {
			if ns[i] < ns[i-1] {
				t.Fatalf("user %d jobs reordered: %v", user, ns)
			}
		}
	}
	if len(got[0])+len(got[1])+len(got[2]) != 100 {
		t.Errorf("jobs lost: %v", got)
	}
	if len(q.pending) != 0 {
		t.Errorf("workers left behind: %v", q.pending)
	}
}
