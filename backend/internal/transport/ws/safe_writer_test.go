package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"physgun-server/backend/internal/replication"
)

// echoPeer принимает соединение и пересылает прочитанные кадры в канал
func echoPeer(t *testing.T) (string, <-chan []byte, <-chan struct{}) {
	t.Helper()
	frames := make(chan []byte, 64)
	pings := make(chan struct{}, 4)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Не удалось обновить соединение: %v", err)
			return
		}
		defer conn.Close()

		conn.SetPingHandler(func(string) error {
			pings <- struct{}{}
			return nil
		})
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frames <- data
		}
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http"), frames, pings
}

func TestSafeWriter_ConcurrentMessages(t *testing.T) {
	url, frames, _ := echoPeer(t)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Не удалось подключиться: %v", err)
	}
	defer conn.Close()

	writer := NewSafeWriter(conn, time.Second)

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(seq uint64) {
			defer wg.Done()
			msg, _ := replication.NewMessage(replication.MessageTypeInfo, replication.InfoPayload{Message: "test"})
			msg.Seq = seq
			if err := writer.WriteJSON(msg); err != nil {
				t.Errorf("Ошибка записи: %v", err)
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	seen := make(map[uint64]bool)
	for i := 0; i < writers; i++ {
		select {
		case data := <-frames:
			// Кадры не должны перемешиваться при параллельной записи
			msg, err := replication.ParseMessage(data)
			if err != nil {
				t.Fatalf("Поврежденный кадр: %v", err)
			}
			seen[msg.Seq] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("Получено %d кадров из %d", i, writers)
		}
	}
	if len(seen) != writers {
		t.Errorf("Ожидалось %d разных сообщений, получено %d", writers, len(seen))
	}
}

func TestSafeWriter_Ping(t *testing.T) {
	url, _, pings := echoPeer(t)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Не удалось подключиться: %v", err)
	}
	defer conn.Close()

	writer := NewSafeWriter(conn, 0)
	if err := writer.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	select {
	case <-pings:
	case <-time.After(2 * time.Second):
		t.Error("Ping не дошел до собеседника")
	}
}

func TestSafeWriter_Close(t *testing.T) {
	url, _, _ := echoPeer(t)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Не удалось подключиться: %v", err)
	}

	writer := NewSafeWriter(conn, time.Second)
	if err := writer.Close(); err != nil {
		t.Errorf("Ошибка закрытия: %v", err)
	}

	// Запись в закрытое соединение должна вернуть ошибку
	if err := writer.WriteJSON("test"); err == nil {
		t.Error("Ожидалась ошибка записи в закрытое соединение")
	}
}
