package feed

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

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-armillary/internal/astro"
	"github.com/litescript/ls-armillary/internal/engine"
	"github.com/litescript/ls-armillary/internal/logging"
)

func testFrame(t *testing.T, minutes float64) *engine.Frame {
	t.Helper()
	f, err := engine.New(engine.Options{}).Compute(context.Background(), engine.Inputs{
		Year: 2024, DayOfYear: 1, MinutesUTC: minutes,
		Location: astro.GeoLocation{LatDeg: 51.4769, LonDeg: 0},
	})
	require.NoError(t, err)
	return f
}

func TestEncoder(t *testing.T) {
	enc := NewEncoder("session-1")
	f := testFrame(t, 0)

	first, err := enc.Encode(f)
	require.NoError(t, err)
	second, err := enc.Encode(f)
	require.NoError(t, err)

	var m1, m2 Message
	require.NoError(t, json.Unmarshal(first, &m1))
	require.NoError(t, json.Unmarshal(second, &m2))

	assert.Equal(t, "frame", m1.Type)
	assert.Equal(t, "session-1", m1.Session)
	assert.Equal(t, uint64(1), m1.Seq)
	assert.Equal(t, uint64(2), m2.Seq)
	assert.Equal(t, "10°00' Capricorn", m1.Summary.Sun)
	assert.InDelta(t, f.JulianDate, m1.Summary.JD, 1e-9)
	require.NotNil(t, m1.Frame)
	assert.Equal(t, "Mean", m1.Frame.Provider)

	_, err = enc.Encode(nil)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	f := testFrame(t, 720)
	s := Summarize(f)

	assert.Equal(t, astro.ToZodiacString(f.Angles.ASC), s.ASC)
	assert.Equal(t, astro.ToZodiacString(f.Angles.MC), s.MC)
	assert.Equal(t, f.Phase.Name, s.Phase)
	assert.Equal(t, f.Twilight, s.Twilight)
	assert.InDelta(t, f.Sun.AltDeg, s.SunAltDeg, 1e-12)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m Message
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestHub_Broadcast(t *testing.T) {
	ctx := context.Background()
	hub := NewHub("s", nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	defer hub.Close()

	// Latest frame is replayed to new clients.
	require.NoError(t, hub.Publish(ctx, testFrame(t, 0)))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readMessage(t, conn)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, 1, hub.Clients())

	require.NoError(t, hub.Publish(ctx, testFrame(t, 60)))
	second := readMessage(t, conn)
	assert.Equal(t, uint64(2), second.Seq)
	assert.Greater(t, second.Summary.JD, first.Summary.JD)
}

func TestHub_FrameEndpoint(t *testing.T) {
	hub := NewHub("s", nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/frame")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	require.NoError(t, hub.Publish(context.Background(), testFrame(t, 0)))

	resp, err = http.Get(srv.URL + "/frame")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var m Message
	require.NoError(t, json.Unmarshal(body, &m))
	assert.Equal(t, uint64(1), m.Seq)
}

func TestHub_CloseDisconnects(t *testing.T) {
	hub := NewHub("s", nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	require.NoError(t, hub.Publish(context.Background(), testFrame(t, 0)))
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn)

	require.NoError(t, hub.Close())
	assert.Equal(t, 0, hub.Clients())

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "connection should be closed")
}

func TestHub_PublishCancelled(t *testing.T) {
	hub := NewHub("s", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, hub.Publish(ctx, testFrame(t, 0)), context.Canceled)
	assert.Nil(t, hub.Latest())
}

// fakeToken is a completed MQTT token.
type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient records publishes. Unused methods panic via the nil embed.
type fakeClient struct {
	mqtt.Client
	mu           sync.Mutex
	msgs         []published
	err          error
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, published{topic, qos, retained, payload.([]byte)})
	return newFakeToken(c.err)
}

func (c *fakeClient) Disconnect(uint) {
	c.disconnected = true
}

func TestMQTTPublisher_Publish(t *testing.T) {
	client := &fakeClient{}
	p := &MQTTPublisher{client: client, topic: "sky", encoder: NewEncoder("s"), log: logging.Discard()}

	f := testFrame(t, 0)
	require.NoError(t, p.Publish(context.Background(), f))

	require.Len(t, client.msgs, 2)
	frameMsg, summaryMsg := client.msgs[0], client.msgs[1]

	assert.Equal(t, "sky", frameMsg.topic)
	assert.False(t, frameMsg.retained)
	var m Message
	require.NoError(t, json.Unmarshal(frameMsg.payload, &m))
	assert.Equal(t, uint64(1), m.Seq)

	assert.Equal(t, "sky/summary", summaryMsg.topic)
	assert.True(t, summaryMsg.retained)
	assert.Equal(t, byte(1), summaryMsg.qos)
	var s Summary
	require.NoError(t, json.Unmarshal(summaryMsg.payload, &s))
	assert.Equal(t, "10°00' Capricorn", s.Sun)

	require.NoError(t, p.Close())
	assert.True(t, client.disconnected)
}

func TestMQTTPublisher_PublishError(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	p := &MQTTPublisher{client: client, topic: "sky", encoder: NewEncoder("s"), log: logging.Discard()}

	err := p.Publish(context.Background(), testFrame(t, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish sky")
	assert.Len(t, client.msgs, 1, "summary is not sent after a failed frame")
}

func TestNewMQTTPublisher_NoBroker(t *testing.T) {
	_, err := NewMQTTPublisher(context.Background(), MQTTOptions{})
	assert.Error(t, err)
}

type recordingPublisher struct {
	n   int
	err error
}

func (r *recordingPublisher) Publish(context.Context, *engine.Frame) error {
	r.n++
	return r.err
}

func (r *recordingPublisher) Close() error { return r.err }

func TestMulti(t *testing.T) {
	ok := &recordingPublisher{}
	bad := &recordingPublisher{err: errors.New("down")}
	m := Multi{bad, ok}

	err := m.Publish(context.Background(), testFrame(t, 0))
	assert.EqualError(t, err, "down")
	assert.Equal(t, 1, ok.n, "later publishers still run")
	assert.EqualError(t, m.Close(), "down")
}
