package hub

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"raffle-panel/config"
	"raffle-panel/database"
	"raffle-panel/database/model"
	"raffle-panel/web/service"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

func setupHub(t *testing.T) (*Hub, *service.RaffleService) {
	t.Helper()
	if err := database.InitDB(filepath.Join(t.TempDir(), "raffle.db")); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}

	raffleService := service.NewRaffleService(config.PolicyPool)
	h := New(raffleService.GetSnapshot)
	h.Handle("raffle", func(_ json.RawMessage) (*service.Snapshot, error) {
		return raffleService.Draw()
	})
	h.Handle("reset", func(_ json.RawMessage) (*service.Snapshot, error) {
		return raffleService.Reset()
	})
	return h, raffleService
}

func startServer(t *testing.T, h *Hub) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Serve(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) *Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	msg := &Message{}
	if err := json.Unmarshal(raw, msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	return msg
}

func readSnapshot(t *testing.T, conn *websocket.Conn) *service.Snapshot {
	t.Helper()
	msg := readEvent(t, conn)
	if msg.Event != EventSyncState {
		t.Fatalf("event = %q, want %q", msg.Event, EventSyncState)
	}
	snapshot := &service.Snapshot{}
	if err := json.Unmarshal(msg.Data, snapshot); err != nil {
		t.Fatalf("unmarshal snapshot failed: %v", err)
	}
	return snapshot
}

func send(t *testing.T, conn *websocket.Conn, event string) {
	t.Helper()
	frame, err := json.Marshal(&Message{Event: event})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestConnectPushesSnapshot(t *testing.T) {
	h, _ := setupHub(t)
	url := startServer(t, h)

	conn := dial(t, url)
	snapshot := readSnapshot(t, conn)
	if snapshot.Status != model.StatusWaiting {
		t.Errorf("status = %q, want waiting", snapshot.Status)
	}
}

func TestCommandBroadcastsToAllClients(t *testing.T) {
	h, _ := setupHub(t)
	db := database.GetDB()
	if err := db.Create(&model.Item{Name: "Radio", Order: 1}).Error; err != nil {
		t.Fatalf("create item failed: %v", err)
	}
	if err := db.Create(&model.Participant{Name: "Ana"}).Error; err != nil {
		t.Fatalf("create participant failed: %v", err)
	}
	url := startServer(t, h)

	agent := dial(t, url)
	display := dial(t, url)
	readSnapshot(t, agent)
	readSnapshot(t, display)

	send(t, agent, "raffle")

	for _, conn := range []*websocket.Conn{agent, display} {
		snapshot := readSnapshot(t, conn)
		if snapshot.Status != model.StatusRaffling {
			t.Errorf("status = %q, want raffling", snapshot.Status)
		}
		if snapshot.CurrentItem == nil || snapshot.CurrentItem.Winner == nil {
			t.Fatalf("broadcast snapshot missing winner: %+v", snapshot.CurrentItem)
		}
		if snapshot.CurrentItem.Winner.Name != "Ana" {
			t.Errorf("winner = %q, want Ana", snapshot.CurrentItem.Winner.Name)
		}
	}
}

func TestErrorGoesOnlyToSender(t *testing.T) {
	h, _ := setupHub(t)
	url := startServer(t, h)

	agent := dial(t, url)
	display := dial(t, url)
	readSnapshot(t, agent)
	readSnapshot(t, display)

	// No items loaded, so the draw fails for the sender.
	send(t, agent, "raffle")

	msg := readEvent(t, agent)
	if msg.Event != EventError {
		t.Fatalf("event = %q, want %q", msg.Event, EventError)
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		t.Fatalf("unmarshal error payload failed: %v", err)
	}
	if payload.Message == "" {
		t.Error("error payload has no message")
	}

	// The other client sees nothing.
	display.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, _, err := display.ReadMessage(); err == nil {
		t.Error("display received a frame for another client's failed command")
	}
}

func TestUnknownEventAnswersError(t *testing.T) {
	h, _ := setupHub(t)
	url := startServer(t, h)

	conn := dial(t, url)
	readSnapshot(t, conn)

	// record-winner is not registered under the pool policy.
	send(t, conn, "record-winner")
	msg := readEvent(t, conn)
	if msg.Event != EventError {
		t.Fatalf("event = %q, want %q", msg.Event, EventError)
	}
}

func TestConnectedGauge(t *testing.T) {
	h, _ := setupHub(t)
	url := startServer(t, h)

	if h.Connected() != 0 {
		t.Fatalf("connected = %d, want 0", h.Connected())
	}
	conn := dial(t, url)
	readSnapshot(t, conn)
	if h.Connected() != 1 {
		t.Errorf("connected = %d, want 1", h.Connected())
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Connected() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h.Connected() != 0 {
		t.Errorf("connected = %d after disconnect, want 0", h.Connected())
	}
}
