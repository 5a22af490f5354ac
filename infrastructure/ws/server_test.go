package ws

import (
	"chat-relay/broadcast"
	"chat-relay/moderation"
	"chat-relay/roster"
	"chat-relay/session"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// frame mirrors the relay's outbound envelope on the client side.
type frame struct {
	Event string          `json:"event"`
	Seq   uint64          `json:"seq,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

func newTestServer(t *testing.T) string {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := roster.NewStore()
	membership := roster.NewManager(store)
	router := broadcast.NewRouter(store, log)
	moderator, err := moderation.NewModerator([]string{"badger"}, '*', log)
	require.NoError(t, err)

	server := NewServer(log, membership, router, &moderator, session.SystemClock{}, 32)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.Handle)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, eventName string, seq uint64, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Envelope{Event: eventName, Seq: seq, Data: payload}))
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func decodeData(t *testing.T, f frame, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(f.Data, dst))
}

type messagePayload struct {
	Sender    string `json:"senderName"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

type roomDataPayload struct {
	Room  string `json:"room"`
	Users []struct {
		DisplayName string `json:"displayName"`
	} `json:"users"`
}

// joinRoom performs a successful join and consumes the deterministic
// per-connection sequence it produces: welcome, roomData, ack.
func joinRoom(t *testing.T, conn *websocket.Conn, seq uint64, name, room string) {
	t.Helper()
	req := require.New(t)
	send(t, conn, EventJoin, seq, JoinRequest{DisplayName: name, Room: room})

	welcome := readFrame(t, conn)
	req.Equal("message", welcome.Event)

	data := readFrame(t, conn)
	req.Equal("roomData", data.Event)

	ack := readFrame(t, conn)
	req.Equal(EventAck, ack.Event)
	req.Equal(seq, ack.Seq)
	req.Empty(ack.Error)
}

func TestServer_Join_Produces_Welcome_Roster_And_Ack(t *testing.T) {
	req := require.New(t)
	url := newTestServer(t)
	conn := dial(t, url)

	send(t, conn, EventJoin, 1, JoinRequest{DisplayName: "Alice", Room: "Lobby"})

	// The connection observes its own events in emission order
	welcome := readFrame(t, conn)
	req.Equal("message", welcome.Event)
	var msg messagePayload
	decodeData(t, welcome, &msg)
	req.Equal("Admin", msg.Sender)
	req.Equal("Welcome!", msg.Text)

	data := readFrame(t, conn)
	req.Equal("roomData", data.Event)
	var roomData roomDataPayload
	decodeData(t, data, &roomData)
	req.Equal("lobby", roomData.Room)
	req.Len(roomData.Users, 1)
	req.Equal("alice", roomData.Users[0].DisplayName)

	ack := readFrame(t, conn)
	req.Equal(EventAck, ack.Event)
	req.Equal(uint64(1), ack.Seq)
	req.Empty(ack.Error)
}

func TestServer_Join_Duplicate_Name_Is_Acked_With_Error(t *testing.T) {
	req := require.New(t)
	url := newTestServer(t)

	alice := dial(t, url)
	joinRoom(t, alice, 1, "Alice", "lobby")

	imposter := dial(t, url)
	send(t, imposter, EventJoin, 1, JoinRequest{DisplayName: "ALICE", Room: "lobby"})

	// The failure produces a single ack and nothing else
	ack := readFrame(t, imposter)
	req.Equal(EventAck, ack.Event)
	req.Contains(ack.Error, "already in use")
}

func TestServer_Join_Missing_Fields_Fail_Validation(t *testing.T) {
	req := require.New(t)
	url := newTestServer(t)
	conn := dial(t, url)

	send(t, conn, EventJoin, 7, JoinRequest{DisplayName: "", Room: "lobby"})

	ack := readFrame(t, conn)
	req.Equal(EventAck, ack.Event)
	req.Equal(uint64(7), ack.Seq)
	req.NotEmpty(ack.Error)
}

func TestServer_Message_Reaches_The_Whole_Room(t *testing.T) {
	req := require.New(t)
	url := newTestServer(t)

	alice := dial(t, url)
	joinRoom(t, alice, 1, "alice", "lobby")

	bob := dial(t, url)
	joinRoom(t, bob, 1, "bob", "lobby")

	// Alice hears about bob joining before any chat traffic
	notice := readFrame(t, alice)
	req.Equal("message", notice.Event)
	var msg messagePayload
	decodeData(t, notice, &msg)
	req.Equal("Admin", msg.Sender)
	req.Equal("bob has joined!", msg.Text)
	refresh := readFrame(t, alice)
	req.Equal("roomData", refresh.Event)

	// When bob sends a message
	send(t, bob, EventSendMessage, 2, MessageRequest{Text: "hello there"})

	// Then both connections receive it, tagged with bob's name
	for _, conn := range []*websocket.Conn{alice, bob} {
		f := readFrame(t, conn)
		req.Equal("message", f.Event)
		decodeData(t, f, &msg)
		req.Equal("bob", msg.Sender)
		req.Equal("hello there", msg.Text)
		req.NotEmpty(msg.CreatedAt)
	}

	ack := readFrame(t, bob)
	req.Equal(EventAck, ack.Event)
	req.Equal(uint64(2), ack.Seq)
	req.Empty(ack.Error)
}

func TestServer_Profane_Message_Is_Not_Relayed(t *testing.T) {
	req := require.New(t)
	url := newTestServer(t)

	alice := dial(t, url)
	joinRoom(t, alice, 1, "alice", "lobby")

	// When alice tries a forbidden word
	send(t, alice, EventSendMessage, 2, MessageRequest{Text: "you badger!"})

	// Then the next frame is the error ack: no message event was emitted,
	// not even to the sender
	ack := readFrame(t, alice)
	req.Equal(EventAck, ack.Event)
	req.Equal(uint64(2), ack.Seq)
	req.Contains(ack.Error, "not allowed")

	// And a clean message flows through right after
	send(t, alice, EventSendMessage, 3, MessageRequest{Text: "all good"})
	f := readFrame(t, alice)
	req.Equal("message", f.Event)
	var msg messagePayload
	decodeData(t, f, &msg)
	req.Equal("all good", msg.Text)
}

func TestServer_Location_Builds_A_Map_Link(t *testing.T) {
	req := require.New(t)
	url := newTestServer(t)

	alice := dial(t, url)
	joinRoom(t, alice, 1, "alice", "lobby")

	send(t, alice, EventSendLocation, 2, LocationRequest{Latitude: 48.8584, Longitude: 2.2945})

	f := readFrame(t, alice)
	req.Equal("locationMessage", f.Event)
	var loc struct {
		Sender string `json:"senderName"`
		URL    string `json:"url"`
	}
	decodeData(t, f, &loc)
	req.Equal("alice", loc.Sender)
	req.Equal("https://google.com/maps?q=48.8584,2.2945", loc.URL)

	ack := readFrame(t, alice)
	req.Equal(EventAck, ack.Event)
	req.Empty(ack.Error)
}

func TestServer_Location_Out_Of_Range_Is_Rejected(t *testing.T) {
	req := require.New(t)
	url := newTestServer(t)

	alice := dial(t, url)
	joinRoom(t, alice, 1, "alice", "lobby")

	send(t, alice, EventSendLocation, 2, LocationRequest{Latitude: 123, Longitude: 0})

	ack := readFrame(t, alice)
	req.Equal(EventAck, ack.Event)
	req.NotEmpty(ack.Error)
}

func TestServer_Message_Before_Join_Is_Rejected(t *testing.T) {
	req := require.New(t)
	url := newTestServer(t)
	conn := dial(t, url)

	send(t, conn, EventSendMessage, 1, MessageRequest{Text: "anyone?"})

	ack := readFrame(t, conn)
	req.Equal(EventAck, ack.Event)
	req.Contains(ack.Error, "not joined")
}

func TestServer_Unknown_Event_Is_Acked_With_Error(t *testing.T) {
	req := require.New(t)
	url := newTestServer(t)
	conn := dial(t, url)

	send(t, conn, "teleport", 1, struct{}{})

	ack := readFrame(t, conn)
	req.Equal(EventAck, ack.Event)
	req.Contains(ack.Error, "unknown event")
}

func TestServer_Disconnect_Notifies_The_Room(t *testing.T) {
	req := require.New(t)
	url := newTestServer(t)

	alice := dial(t, url)
	joinRoom(t, alice, 1, "alice", "lobby")

	bob := dial(t, url)
	joinRoom(t, bob, 1, "bob", "lobby")

	// Drain the join notice alice received for bob
	readFrame(t, alice) // message: bob has joined!
	readFrame(t, alice) // roomData

	// When bob drops the connection
	req.NoError(bob.Close())

	// Then alice hears the named notice and the refreshed roster
	notice := readFrame(t, alice)
	req.Equal("message", notice.Event)
	var msg messagePayload
	decodeData(t, notice, &msg)
	req.Equal("Admin", msg.Sender)
	req.Equal("bob has left!", msg.Text)

	refresh := readFrame(t, alice)
	req.Equal("roomData", refresh.Event)
	var roomData roomDataPayload
	decodeData(t, refresh, &roomData)
	req.Len(roomData.Users, 1)
	req.Equal("alice", roomData.Users[0].DisplayName)
}

func TestServer_Disconnect_Before_Join_Is_Silent(t *testing.T) {
	req := require.New(t)
	url := newTestServer(t)

	alice := dial(t, url)
	joinRoom(t, alice, 1, "alice", "lobby")

	ghost := dial(t, url)
	req.NoError(ghost.Close())

	// Alice receives nothing from the ghost; her next frame is her own echo
	send(t, alice, EventSendMessage, 2, MessageRequest{Text: "quiet in here"})
	f := readFrame(t, alice)
	req.Equal("message", f.Event)
	var msg messagePayload
	decodeData(t, f, &msg)
	req.Equal("quiet in here", msg.Text)
}
