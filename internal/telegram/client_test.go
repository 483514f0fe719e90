package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/ports"
	"github.com/iLeonidze/OXPAHA28-bot/internal/testutil"
)

// fakeAPI records calls and answers each method with a canned result.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []fakeCall
	results map[string]string
}

type fakeCall struct {
	Method string
	Body   map[string]any
}

func newFakeAPI(t *testing.T, results map[string]string) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{results: results}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, NewClient("TOKEN", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	if !strings.HasPrefix(r.URL.Path, "/botTOKEN/") {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
		return
	}

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{Method: method, Body: body})
	result, ok := f.results[method]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		result = `{"ok":true,"result":{"message_id":1}}`
	}
	if strings.Contains(result, `"ok":false`) {
		w.WriteHeader(http.StatusBadRequest)
	}
	io.WriteString(w, result)
}

func (f *fakeAPI) last(t *testing.T) fakeCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("no calls recorded")
	}
	return f.calls[len(f.calls)-1]
}

func TestClient_SendText(t *testing.T) {
	api, c := newFakeAPI(t, map[string]string{
		"sendMessage": `{"ok":true,"result":{"message_id":77,"chat":{"id":42,"type":"private"},"date":1}}`,
	})

	id, err := c.SendText(context.Background(), 42, `ул\. Ленина`, ports.SendOptions{
		Markdown: true,
		Keyboard: domain.Keyboard{{"a"}, {"b", "c"}},
		ReplyTo:  5,
		Silent:   true,
	})
	if err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	if id != 77 {
		t.Errorf("SendText() id = %d, want 77", id)
	}

	call := api.last(t)
	if call.Method != "sendMessage" {
		t.Fatalf("method = %q, want sendMessage", call.Method)
	}
	if call.Body["parse_mode"] != ParseModeMarkdownV2 {
		t.Errorf("parse_mode = %v, want MarkdownV2", call.Body["parse_mode"])
	}
	if call.Body["disable_notification"] != true {
		t.Errorf("disable_notification = %v, want true", call.Body["disable_notification"])
	}
	markup, _ := call.Body["reply_markup"].(map[string]any)
	rows, _ := markup["keyboard"].([]any)
	if len(rows) != 2 {
		t.Errorf("keyboard rows = %d, want 2", len(rows))
	}
	reply, _ := call.Body["reply_parameters"].(map[string]any)
	if reply["message_id"] != float64(5) {
		t.Errorf("reply_parameters = %v, want message 5", reply)
	}
}

func TestClient_SendTextWithoutKeyboard(t *testing.T) {
	api, c := newFakeAPI(t, nil)

	if _, err := c.SendText(context.Background(), 1, "hi", ports.SendOptions{}); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	call := api.last(t)
	for _, key := range []string{"reply_markup", "parse_mode", "reply_parameters"} {
		if _, ok := call.Body[key]; ok {
			t.Errorf("request has %q, want it omitted", key)
		}
	}
}

func TestClient_InlineLinks(t *testing.T) {
	api, c := newFakeAPI(t, nil)

	opts := ports.SendOptions{
		Keyboard: domain.Keyboard{{"ignored"}},
		Links:    []domain.Link{{Text: "Open", URL: "tg://resolve?domain=bot&start=from_channel"}},
	}
	if _, err := c.SendText(context.Background(), -100, "pin", opts); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}

	markup, _ := api.last(t).Body["reply_markup"].(map[string]any)
	rows, ok := markup["inline_keyboard"].([]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("reply_markup = %v, want one inline row", markup)
	}
	btn := rows[0].([]any)[0].(map[string]any)
	if btn["url"] != "tg://resolve?domain=bot&start=from_channel" {
		t.Errorf("button url = %v", btn["url"])
	}
}

func TestClient_SendMedia(t *testing.T) {
	tests := []struct {
		kind   domain.MediaKind
		method string
		field  string
	}{
		{domain.MediaPhoto, "sendPhoto", "photo"},
		{domain.MediaAnimation, "sendAnimation", "animation"},
		{domain.MediaVideo, "sendVideo", "video"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			api, c := newFakeAPI(t, nil)

			_, err := c.SendMedia(context.Background(), 42, domain.Media{Kind: tt.kind, FileID: "file-1"}, ports.SendOptions{})
			if err != nil {
				t.Fatalf("SendMedia() error = %v", err)
			}
			call := api.last(t)
			if call.Method != tt.method {
				t.Errorf("method = %q, want %q", call.Method, tt.method)
			}
			if call.Body[tt.field] != "file-1" {
				t.Errorf("%s = %v, want file-1", tt.field, call.Body[tt.field])
			}
		})
	}

	_, c := newFakeAPI(t, nil)
	if _, err := c.SendMedia(context.Background(), 42, domain.Media{Kind: "sticker", FileID: "x"}, ports.SendOptions{}); err == nil {
		t.Error("SendMedia() with unsupported kind error = nil")
	}
}

func TestClient_SendLocation(t *testing.T) {
	api, c := newFakeAPI(t, nil)

	_, err := c.SendLocation(context.Background(), 42, domain.Location{Latitude: 55.75, Longitude: 37.61}, ports.SendOptions{ReplyTo: 3})
	if err != nil {
		t.Fatalf("SendLocation() error = %v", err)
	}
	call := api.last(t)
	if call.Method != "sendLocation" || call.Body["latitude"] != 55.75 {
		t.Errorf("call = %+v", call)
	}
}

func TestClient_APIError(t *testing.T) {
	_, c := newFakeAPI(t, map[string]string{
		"sendMessage": `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 3","parameters":{"retry_after":3}}`,
		"getMe":       `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`,
	})

	_, err := c.SendText(context.Background(), 1, "x", ports.SendOptions{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("SendText() error = %v, want *APIError", err)
	}
	if apiErr.Code != 429 || !apiErr.Temporary() {
		t.Errorf("APIError = %+v, want temporary 429", apiErr)
	}
	if d, ok := RetryAfter(err); !ok || d != 3*time.Second {
		t.Errorf("RetryAfter() = %v, %v; want 3s", d, ok)
	}
	if IsPermanent(err) {
		t.Error("IsPermanent() = true for flood control")
	}

	_, err = c.GetMe(context.Background())
	if !IsPermanent(err) {
		t.Errorf("IsPermanent(%v) = false, want true", err)
	}
	if _, ok := RetryAfter(err); ok {
		t.Error("RetryAfter() found a delay on a 403")
	}
}

func TestClient_GetUpdates(t *testing.T) {
	api, c := newFakeAPI(t, map[string]string{
		"getUpdates": `{"ok":true,"result":[
			{"update_id":10,"message":{"message_id":1,"from":{"id":42,"is_bot":false,"first_name":"Иван"},"chat":{"id":42,"type":"private"},"date":1,"text":"/start","entities":[{"type":"bot_command","offset":0,"length":6}]}},
			{"update_id":11,"message":{"message_id":2,"chat":{"id":42,"type":"private"},"date":2,"photo":[{"file_id":"s","file_unique_id":"u1","width":90,"height":90},{"file_id":"l","file_unique_id":"u2","width":1280,"height":960}]}}
		]}`,
	})

	updates, err := c.GetUpdates(context.Background(), &GetUpdatesRequest{Offset: 10, Timeout: 30})
	if err != nil {
		t.Fatalf("GetUpdates() error = %v", err)
	}
	if len(updates) != 2 || updates[1].Message.Photo[1].FileID != "l" {
		t.Errorf("GetUpdates() = %+v", updates)
	}
	if got := api.last(t).Body["offset"]; got != float64(10) {
		t.Errorf("offset = %v, want 10", got)
	}
}

func TestClient_UnexpectedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "<html>bad gateway</html>")
	}))
	defer srv.Close()

	c := NewClient("TOKEN", WithBaseURL(srv.URL))
	_, err := c.GetMe(context.Background())
	if err == nil || !strings.Contains(err.Error(), "status 502") {
		t.Errorf("GetMe() error = %v, want unexpected response with status", err)
	}
}

func TestClient_RedactsToken(t *testing.T) {
	c := NewClient("SECRET:TOKEN", WithBaseURL("http://127.0.0.1:1"), WithTimeout(time.Second))

	_, err := c.GetMe(context.Background())
	if err == nil {
		t.Fatal("GetMe() error = nil, want connection error")
	}
	if strings.Contains(err.Error(), "SECRET:TOKEN") {
		t.Errorf("error leaks token: %v", err)
	}
}

func TestMessage_ForwardedMessageID(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want int64
	}{
		{"origin", Message{ForwardOrigin: &MessageOrigin{Type: "channel", MessageID: 15}}, 15},
		{"legacy", Message{ForwardFromMessageID: 16}, 16},
		{"user origin", Message{ForwardOrigin: &MessageOrigin{Type: "user"}, ForwardFromMessageID: 0}, 0},
		{"none", Message{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.ForwardedMessageID(); got != tt.want {
				t.Errorf("ForwardedMessageID() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClient_Replay(t *testing.T) {
	if testutil.VCRRecording() && testutil.VCRToken() == "" {
		t.Skip("Skipping test: TELEGRAM_BOT_TOKEN not set")
	}

	rec, cleanup := testutil.NewVCRRecorder(t, "telegram_bot")
	defer cleanup()

	c := NewClient(testutil.VCRToken(), WithHTTPClient(testutil.VCRHTTPClient(rec)))
	ctx := context.Background()

	me, err := c.GetMe(ctx)
	if err != nil {
		t.Fatalf("GetMe() error = %v", err)
	}
	if !me.IsBot || me.Username != "oxpaha28_bot" {
		t.Errorf("GetMe() = %+v", me)
	}

	id, err := c.SendText(ctx, 42, "Выберите улицу", ports.SendOptions{Keyboard: domain.Keyboard{{"Ленина"}, {"⬅️ Назад"}}})
	if err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	if id != 1001 {
		t.Errorf("SendText() id = %d, want 1001", id)
	}

	_, err = c.SendText(ctx, 42, "*bold", ports.SendOptions{Markdown: true})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 400 {
		t.Fatalf("SendText() error = %v, want 400 APIError", err)
	}
	if !strings.Contains(apiErr.Description, "can't parse entities") {
		t.Errorf("Description = %q", apiErr.Description)
	}
}
