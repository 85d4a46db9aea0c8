package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"physgun-server/backend/internal/replication"
)

type recordingHooks struct {
	joined chan replication.ParticipantID
	left   chan replication.ParticipantID
}

func newRecordingHooks() *recordingHooks {
	return &recordingHooks{
		joined: make(chan replication.ParticipantID, 8),
		left:   make(chan replication.ParticipantID, 8),
	}
}

func (h *recordingHooks) Join(p replication.ParticipantID)  { h.joined <- p }
func (h *recordingHooks) Leave(p replication.ParticipantID) { h.left <- p }

func startServer(t *testing.T) (*Server, *recordingHooks, string) {
	t.Helper()
	hooks := newRecordingHooks()
	srv := NewServer(ServerOptions{HostID: "host"}, hooks)
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, hooks, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string, hooks *recordingHooks) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := Dial(ctx, url, ClientOptions{})
	if err != nil {
		t.Fatalf("Не удалось подключиться: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	select {
	case p := <-hooks.joined:
		if p != c.LocalID() {
			t.Fatalf("Join для %s, ожидался %s", p, c.LocalID())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Join не вызван")
	}
	return c
}

func receive(t *testing.T, inbox <-chan replication.Message) replication.Message {
	t.Helper()
	select {
	case msg, ok := <-inbox:
		if !ok {
			t.Fatal("Канал входящих закрыт")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("Сообщение не получено")
	}
	return replication.Message{}
}

func TestServer_WelcomeAssignsParticipant(t *testing.T) {
	_, hooks, url := startServer(t)

	a := dial(t, url, hooks)
	b := dial(t, url, hooks)

	if a.LocalID() == "" || a.LocalID() == b.LocalID() {
		t.Errorf("Идентификаторы участников должны быть уникальны: %s, %s", a.LocalID(), b.LocalID())
	}
	if a.HostID() != "host" {
		t.Errorf("Ожидался хост host, получен %s", a.HostID())
	}
	if a.IsHost() {
		t.Error("Клиент не должен быть хостом")
	}
}

func TestServer_RelaysToAllIncludingSender(t *testing.T) {
	srv, hooks, url := startServer(t)
	a := dial(t, url, hooks)
	b := dial(t, url, hooks)

	msg, _ := replication.NewMessage(replication.MessageTypeInfo, replication.InfoPayload{Message: "hi"})
	if err := a.Broadcast(msg); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	for name, inbox := range map[string]<-chan replication.Message{
		"a":    a.Inbox(),
		"b":    b.Inbox(),
		"host": srv.Inbox(),
	} {
		got := receive(t, inbox)
		if got.Type != replication.MessageTypeInfo || got.Sender != a.LocalID() {
			t.Errorf("%s: получено %s от %s", name, got.Type, got.Sender)
		}
		if got.Seq != 1 {
			t.Errorf("%s: ожидался seq 1, получен %d", name, got.Seq)
		}
	}
}

func TestServer_OverwritesForgedSender(t *testing.T) {
	srv, hooks, url := startServer(t)
	a := dial(t, url, hooks)

	msg, _ := replication.NewMessage(replication.MessageTypeInfo, replication.InfoPayload{Message: "forged"})
	msg.Sender = "host"
	msg.Seq = 1
	if err := a.writer.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	got := receive(t, srv.Inbox())
	if got.Sender != a.LocalID() {
		t.Errorf("Отправитель должен определяться соединением: %s", got.Sender)
	}
}

func TestServer_StampsSequencePerConnection(t *testing.T) {
	srv, hooks, url := startServer(t)
	a := dial(t, url, hooks)

	// Нулевой и подделанный номера не должны доходить до участников
	for _, forged := range []uint64{0, 0, 100} {
		msg, _ := replication.NewMessage(replication.MessageTypeInfo, replication.InfoPayload{Message: "replay"})
		msg.Seq = forged
		if err := a.writer.WriteJSON(msg); err != nil {
			t.Fatalf("WriteJSON: %v", err)
		}
	}

	for want := uint64(1); want <= 3; want++ {
		got := receive(t, srv.Inbox())
		if got.Seq != want {
			t.Errorf("Ожидался номер %d от сервера, получено %d", want, got.Seq)
		}
	}
	for want := uint64(1); want <= 3; want++ {
		got := receive(t, a.Inbox())
		if got.Seq != want {
			t.Errorf("Ретранслированное сообщение должно нести номер %d, получено %d", want, got.Seq)
		}
	}
}

func TestServer_RejectsHostOnlyTypes(t *testing.T) {
	srv, hooks, url := startServer(t)
	a := dial(t, url, hooks)

	snapshot, _ := replication.NewMessage(replication.MessageTypeSnapshot, map[string]int{"x": 1})
	if err := a.Broadcast(snapshot); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	info, _ := replication.NewMessage(replication.MessageTypeInfo, replication.InfoPayload{Message: "after"})
	if err := a.Broadcast(info); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	// Сообщения одного соединения обрабатываются по порядку
	got := receive(t, srv.Inbox())
	if got.Type != replication.MessageTypeInfo {
		t.Errorf("Снимок от клиента должен быть отброшен, получено %s", got.Type)
	}
	got = receive(t, a.Inbox())
	if got.Type != replication.MessageTypeInfo {
		t.Errorf("Клиент не должен получить свой снимок, получено %s", got.Type)
	}
}

func TestServer_HostBroadcast(t *testing.T) {
	srv, hooks, url := startServer(t)
	a := dial(t, url, hooks)

	for i := 0; i < 2; i++ {
		msg, _ := replication.NewMessage(replication.MessageTypeInfo, replication.InfoPayload{Message: "tick"})
		if err := srv.Broadcast(msg); err != nil {
			t.Fatalf("Broadcast: %v", err)
		}
	}

	for i := uint64(1); i <= 2; i++ {
		local := receive(t, srv.Inbox())
		remote := receive(t, a.Inbox())
		if local.Sender != "host" || remote.Sender != "host" {
			t.Errorf("Отправитель должен быть host: %s, %s", local.Sender, remote.Sender)
		}
		if local.Seq != i || remote.Seq != i {
			t.Errorf("Ожидался seq %d, получены %d и %d", i, local.Seq, remote.Seq)
		}
	}
}

func TestServer_LeaveOnDisconnect(t *testing.T) {
	srv, hooks, url := startServer(t)
	a := dial(t, url, hooks)

	if srv.Clients() != 1 {
		t.Fatalf("Ожидался 1 клиент, получено %d", srv.Clients())
	}

	a.Close()

	select {
	case p := <-hooks.left:
		if p != a.LocalID() {
			t.Errorf("Leave для %s, ожидался %s", p, a.LocalID())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Leave не вызван")
	}
	if srv.Clients() != 0 {
		t.Errorf("Клиент должен быть удален, осталось %d", srv.Clients())
	}

	select {
	case <-a.Done():
	case <-time.After(time.Second):
		t.Error("Done должен закрыться после Close")
	}
}
