package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circleapp/theater/internal/content"
	"github.com/circleapp/theater/internal/repository/checkin/sqlite"
	"github.com/circleapp/theater/internal/repository/connection/inmemory"
	sessionRedis "github.com/circleapp/theater/internal/repository/session/redis"
	"github.com/circleapp/theater/internal/service/checkin"
	"github.com/circleapp/theater/internal/service/theater"
	codec "github.com/circleapp/theater/pkg/theater"
	"github.com/circleapp/theater/pkg/youtube"
)

type stubVideoData struct{}

func (stubVideoData) Get(_ context.Context, videoURL string) (*youtube.VideoData, error) {
	if videoURL == "deadbeef000" {
		return nil, youtube.ErrVideoNotFound
	}

	return &youtube.VideoData{Title: "ABC Song", AuthorName: "Circle Kids"}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.Default()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	checkInRepo, err := sqlite.Open(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { checkInRepo.Close() })

	library := content.New(content.DefaultItems(), nil, logger)
	theaterService := theater.NewService(
		sessionRedis.NewRepo(rc, logger, time.Hour),
		inmemory.NewRepo(logger),
		library,
		logger,
		&theater.Config{PeersLimit: 2, Secret: "test-secret", SessionExp: 30 * time.Second},
	)
	t.Cleanup(theaterService.Close)
	checkInService := checkin.NewService(checkInRepo, nil, logger, &checkin.Config{})

	c := NewController(theaterService, checkInService, library, stubVideoData{}, logger, &Config{})
	srv := httptest.NewServer(c.GetMux())
	t.Cleanup(srv.Close)

	return srv
}

type dataResponse[T any] struct {
	Data  T               `json:"data"`
	Error json.RawMessage `json:"error"`
}

func doJSON[T any](t *testing.T, method, url, body string) (int, dataResponse[T]) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out dataResponse[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func createSession(t *testing.T, srv *httptest.Server, contentID string) theater.Session {
	t.Helper()

	status, resp := doJSON[theater.Session](t, http.MethodPost, srv.URL+"/api/sessions",
		`{"host_name":"Ava","content_id":"`+contentID+`","scheduled_at":"2024-01-15T18:30","timezone":"America/Los_Angeles"}`)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, resp.Data.ID)

	return resp.Data
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestContentRoutes(t *testing.T) {
	srv := newTestServer(t)

	status, list := doJSON[[]content.Item](t, http.MethodGet, srv.URL+"/api/content", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, list.Data, 6)

	status, list = doJSON[[]content.Item](t, http.MethodGet, srv.URL+"/api/content?type=pdf", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, list.Data, 2)

	status, _ = doJSON[any](t, http.MethodGet, srv.URL+"/api/content?type=vhs", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, item := doJSON[content.Item](t, http.MethodGet, srv.URL+"/api/content/sing-along-abc", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, youtube.WatchURL("75p-N9YKqNo"), item.Data.URL)

	status, _ = doJSON[any](t, http.MethodGet, srv.URL+"/api/content/missing", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTimezonesAndVideoData(t *testing.T) {
	srv := newTestServer(t)

	status, zones := doJSON[[]map[string]string](t, http.MethodGet, srv.URL+"/api/timezones", "")
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, zones.Data, 6)
	assert.Equal(t, "America/New_York", zones.Data[0]["value"])

	status, video := doJSON[videoDataResponse](t, http.MethodGet, srv.URL+"/api/youtube?url=https://youtu.be/75p-N9YKqNo", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "75p-N9YKqNo", video.Data.VideoID)
	assert.Equal(t, "ABC Song", video.Data.Title)
	assert.Equal(t, youtube.ThumbnailURL("75p-N9YKqNo"), video.Data.ThumbnailURL)

	status, _ = doJSON[any](t, http.MethodGet, srv.URL+"/api/youtube?url=https://example.com/watch", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON[any](t, http.MethodGet, srv.URL+"/api/youtube?url=deadbeef000", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSessionRoutes(t *testing.T) {
	srv := newTestServer(t)

	sess := createSession(t, srv, "sing-along-abc")
	assert.Equal(t, "6:30 PM PT", sess.ScheduledDisplay)
	assert.Equal(t, "2024-01-16T02:30:00Z", sess.ScheduledAt)

	status, got := doJSON[theater.Session](t, http.MethodGet, srv.URL+"/api/sessions/"+sess.ID, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, sess.ID, got.Data.ID)

	status, _ = doJSON[any](t, http.MethodGet, srv.URL+"/api/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doJSON[any](t, http.MethodPost, srv.URL+"/api/sessions", `{"host_name":"Ava","content_id":"missing"}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doJSON[any](t, http.MethodPost, srv.URL+"/api/sessions",
		`{"host_name":"Ava","content_id":"sing-along-abc","scheduled_at":"2024-01-15T18:30","timezone":"Europe/Paris"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON[any](t, http.MethodPost, srv.URL+"/api/sessions", `{nope`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestCreateSessionValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/sessions", "application/json", strings.NewReader(`{"scheduled_at":"2024-01-15T18:30"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Errors []struct {
			Field string `json:"field"`
			Code  string `json:"code"`
		} `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	fields := make([]string, 0, len(body.Errors))
	for _, e := range body.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"host_name", "content_id", "timezone"}, fields)
}

func TestCheckInRoutes(t *testing.T) {
	srv := newTestServer(t)

	status, created := doJSON[map[string]any](t, http.MethodPost, srv.URL+"/api/check-ins",
		`{"member_id":"m1","label":"school pickup","coords":{"latitude":34.05,"longitude":-118.24,"accuracy":12}}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "device", created.Data["source"])
	assert.Equal(t, 34.05, created.Data["latitude"])

	status, failed := doJSON[any](t, http.MethodPost, srv.URL+"/api/check-ins", `{"member_id":"m1","error_code":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	var geoErr struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(failed.Error, &geoErr))
	assert.Equal(t, 1, geoErr.Code)

	status, _ = doJSON[any](t, http.MethodPost, srv.URL+"/api/check-ins", `{"member_id":"m1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status, "no device report and no ip database")

	status, _ = doJSON[any](t, http.MethodPost, srv.URL+"/api/check-ins",
		`{"member_id":"m1","coords":{"latitude":95,"longitude":0,"accuracy":1}}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, list := doJSON[[]map[string]any](t, http.MethodGet, srv.URL+"/api/check-ins?member_id=m1", "")
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "school pickup", list.Data[0]["label"])

	status, _ = doJSON[any](t, http.MethodGet, srv.URL+"/api/check-ins", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dial(t *testing.T, srv *httptest.Server, sessionID, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions/" + sessionID + "?" + query
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) frame {
	t.Helper()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	var f frame
	require.NoError(t, ws.ReadJSON(&f))
	return f
}

func TestWebsocketSync(t *testing.T) {
	srv := newTestServer(t)
	sess := createSession(t, srv, "sing-along-abc")
	url := youtube.WatchURL("75p-N9YKqNo")

	ava := dial(t, srv, sess.ID, "name=Ava")
	joined := readFrame(t, ava)
	require.Equal(t, TypeJoinedSession, joined.Type)
	var avaJoin joinedSessionPayload
	require.NoError(t, json.Unmarshal(joined.Payload, &avaJoin))
	assert.NotEmpty(t, avaJoin.AuthToken)
	assert.Equal(t, sess.ID, avaJoin.Session.ID)

	ben := dial(t, srv, sess.ID, "name=Ben")
	require.Equal(t, TypeJoinedSession, readFrame(t, ben).Type)

	peerJoined := readFrame(t, ava)
	require.Equal(t, TypePeerJoined, peerJoined.Type)
	var pj peerPayload
	require.NoError(t, json.Unmarshal(peerJoined.Payload, &pj))
	assert.Equal(t, "Ben", pj.Peer.Name)
	assert.Len(t, pj.Peers, 2)

	seek := codec.NewMessage(codec.ActionSeek, codec.ContentYouTube, url, "", codec.WithCurrentTime(30), codec.WithPlaying(false))
	require.NoError(t, ava.WriteJSON(Output{Type: "seek", Payload: seek}))

	relayed := readFrame(t, ben)
	require.Equal(t, TypeSync, relayed.Type)
	msg, err := codec.Decode(relayed.Payload)
	require.NoError(t, err)
	assert.Equal(t, codec.ActionSeek, msg.Action)
	assert.Equal(t, avaJoin.PeerID, msg.SenderID)
	assert.Equal(t, "Ava", msg.SenderName)
	assert.Equal(t, 30.0, *msg.CurrentTime)

	require.NoError(t, ben.WriteJSON(Output{Type: "sync_request", Payload: codec.NewMessage(codec.ActionSyncRequest, codec.ContentYouTube, url, "")}))
	reply := readFrame(t, ben)
	require.Equal(t, TypeSync, reply.Type)
	msg, err = codec.Decode(reply.Payload)
	require.NoError(t, err)
	assert.Equal(t, theater.ServerSenderID, msg.SenderID)
	assert.InDelta(t, 30.0, *msg.CurrentTime, 0.5)
	assert.False(t, *msg.IsPlaying)

	require.Equal(t, TypeSync, readFrame(t, ava).Type, "sync requests are relayed to the other peer")

	require.NoError(t, ava.WriteJSON(Output{Type: "wave", Payload: map[string]any{}}))
	errFrame := readFrame(t, ava)
	assert.Equal(t, TypeError, errFrame.Type)
	assert.Contains(t, string(errFrame.Payload), "unknown message type")

	require.NoError(t, ava.WriteJSON(Output{Type: "play", Payload: seek}))
	assert.Equal(t, TypeError, readFrame(t, ava).Type)

	require.NoError(t, ben.Close())
	left := readFrame(t, ava)
	require.Equal(t, TypePeerLeft, left.Type)
	var pl peerPayload
	require.NoError(t, json.Unmarshal(left.Payload, &pl))
	assert.Equal(t, "Ben", pl.Peer.Name)
}

func TestWebsocketJoinErrors(t *testing.T) {
	srv := newTestServer(t)
	sess := createSession(t, srv, "coloring-animals")

	resp, err := http.Get(srv.URL + "/ws/sessions/missing?name=Ava")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ws/sessions/" + sess.ID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	nameless := dial(t, srv, sess.ID, "auth-token=stale")
	f := readFrame(t, nameless)
	assert.Equal(t, TypeError, f.Type)
	assert.Contains(t, string(f.Payload), "name is required")
	_, _, err = nameless.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, closeNameRequired, closeErr.Code)

	ava := dial(t, srv, sess.ID, "name=Ava")
	readFrame(t, ava)
	ben := dial(t, srv, sess.ID, "name=Ben")
	readFrame(t, ben)

	cid := dial(t, srv, sess.ID, "name=Cid")
	f = readFrame(t, cid)
	assert.Equal(t, TypeError, f.Type)
	assert.Contains(t, string(f.Payload), "session is full")

	_, _, err = cid.ReadMessage()
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, closeSessionFull, closeErr.Code)
}
