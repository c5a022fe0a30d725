package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ephemeral-chat/internal/domain"
	"github.com/fathima-sithara/ephemeral-chat/internal/service"
	"github.com/fathima-sithara/ephemeral-chat/internal/settings"
)

type fakeMessageAPI struct {
	sent      []string
	toggles   []string
	selfDels  []string
	allDels   []string
	deadlines []bool
	sendErr   error
	deleteErr error
}

func (f *fakeMessageAPI) noteDeadline(ctx context.Context) {
	_, ok := ctx.Deadline()
	f.deadlines = append(f.deadlines, ok)
}

func (f *fakeMessageAPI) Send(ctx context.Context, senderID, peerID, text string) (*domain.Message, error) {
	f.noteDeadline(ctx)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, senderID+"->"+peerID+":"+text)
	return &domain.Message{ID: "m1", SenderID: senderID, Text: text}, nil
}

func (f *fakeMessageAPI) ToggleSave(ctx context.Context, messageID string, _ bool) error {
	f.noteDeadline(ctx)
	f.toggles = append(f.toggles, messageID)
	return nil
}

func (f *fakeMessageAPI) DeleteForSelf(ctx context.Context, messageID, userID string) error {
	f.noteDeadline(ctx)
	f.selfDels = append(f.selfDels, messageID+"/"+userID)
	return nil
}

func (f *fakeMessageAPI) DeleteForEveryone(ctx context.Context, messageID, callerID string) error {
	f.noteDeadline(ctx)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.allDels = append(f.allDels, messageID+"/"+callerID)
	return nil
}

type fakeAdminAPI struct {
	updated *domain.Settings
}

func (f *fakeAdminAPI) GetSettings(context.Context) (domain.Settings, error) {
	return domain.DefaultSettings(), nil
}

func (f *fakeAdminAPI) UpdateSettings(_ context.Context, wallpaperURL string, retentionHours float64) (domain.Settings, error) {
	if retentionHours <= 0 {
		return domain.Settings{}, service.ErrInvalidRetention
	}
	st := domain.Settings{WallpaperURL: wallpaperURL, RetentionHours: retentionHours}
	f.updated = &st
	return st, nil
}

type noopSource struct{}

func (noopSource) GetSettings(context.Context) (domain.Settings, error) {
	return domain.Settings{}, context.Canceled
}
func (noopSource) WatchSettings(context.Context) (<-chan domain.Settings, error) {
	return nil, context.Canceled
}

func testApp(msgs *fakeMessageAPI, admin *fakeAdminAPI, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "alice")
		c.Locals("role", role)
		return c.Next()
	})
	h := NewHandlers(msgs, admin, settings.NewWatcher(noopSource{}, zap.NewNop()), zap.NewNop())
	app.Post("/v1/chats/:peer_id/messages", h.sendMessage)
	app.Post("/v1/messages/:msg_id/save", h.toggleSave)
	app.Delete("/v1/messages/:msg_id", h.deleteMessage)
	app.Get("/v1/settings", h.getSettings)
	app.Put("/v1/admin/settings", h.updateSettings)
	return app
}

func jsonReq(method, target string, body interface{}) *http.Request {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func TestSendMessage_Created(t *testing.T) {
	t.Parallel()
	msgs := &fakeMessageAPI{}
	app := testApp(msgs, &fakeAdminAPI{}, "")

	resp, err := app.Test(jsonReq(http.MethodPost, "/v1/chats/bob/messages", fiber.Map{"text": "hello"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, []string{"alice->bob:hello"}, msgs.sent)
}

func TestSendMessage_EmptyTextIsBadRequest(t *testing.T) {
	t.Parallel()
	msgs := &fakeMessageAPI{sendErr: service.ErrEmptyMessage}
	app := testApp(msgs, &fakeAdminAPI{}, "")

	resp, err := app.Test(jsonReq(http.MethodPost, "/v1/chats/bob/messages", fiber.Map{"text": ""}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDeleteMessage_ForMeVsForAll(t *testing.T) {
	t.Parallel()
	msgs := &fakeMessageAPI{}
	app := testApp(msgs, &fakeAdminAPI{}, "")

	resp, err := app.Test(jsonReq(http.MethodDelete, "/v1/messages/m1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"m1/alice"}, msgs.selfDels)

	resp, err = app.Test(jsonReq(http.MethodDelete, "/v1/messages/m1?type=all", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"m1/alice"}, msgs.allDels)
}

func TestMutationHandlers_BoundTheirContexts(t *testing.T) {
	t.Parallel()
	msgs := &fakeMessageAPI{}
	app := testApp(msgs, &fakeAdminAPI{}, "")

	for _, req := range []*http.Request{
		jsonReq(http.MethodPost, "/v1/chats/bob/messages", fiber.Map{"text": "hi"}),
		jsonReq(http.MethodPost, "/v1/messages/m1/save", fiber.Map{"saved": false}),
		jsonReq(http.MethodDelete, "/v1/messages/m1", nil),
		jsonReq(http.MethodDelete, "/v1/messages/m1?type=all", nil),
	} {
		_, err := app.Test(req)
		require.NoError(t, err)
	}

	require.Len(t, msgs.deadlines, 4)
	for i, bounded := range msgs.deadlines {
		assert.True(t, bounded, "mutation call %d ran with an unbounded context", i)
	}
}

func TestDeleteMessage_NonParticipantForbidden(t *testing.T) {
	t.Parallel()
	msgs := &fakeMessageAPI{deleteErr: service.ErrNotParticipant}
	app := testApp(msgs, &fakeAdminAPI{}, "")

	resp, err := app.Test(jsonReq(http.MethodDelete, "/v1/messages/m1?type=all", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestUpdateSettings_AdminOnly(t *testing.T) {
	t.Parallel()
	admin := &fakeAdminAPI{}
	body := fiber.Map{"wallpaper_url": "https://x/y.png", "retention_hours": 12}

	resp, err := testApp(&fakeMessageAPI{}, admin, "user").
		Test(jsonReq(http.MethodPut, "/v1/admin/settings", body))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Nil(t, admin.updated)

	resp, err = testApp(&fakeMessageAPI{}, admin, "admin").
		Test(jsonReq(http.MethodPut, "/v1/admin/settings", body))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, admin.updated)
	assert.Equal(t, 12.0, admin.updated.RetentionHours)
}

func TestUpdateSettings_InvalidRetention(t *testing.T) {
	t.Parallel()
	resp, err := testApp(&fakeMessageAPI{}, &fakeAdminAPI{}, "admin").
		Test(jsonReq(http.MethodPut, "/v1/admin/settings", fiber.Map{"retention_hours": 0}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetSettings_ReturnsEffectiveValues(t *testing.T) {
	t.Parallel()
	resp, err := testApp(&fakeMessageAPI{}, &fakeAdminAPI{}, "").
		Test(jsonReq(http.MethodGet, "/v1/settings", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out struct {
		Data domain.Settings `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, float64(domain.DefaultRetentionHours), out.Data.RetentionHours)
}
