package telemetry

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRecorder_RingBuffer(t *testing.T) {
	r := NewRecorder(3)
	for i := 0; i < 5; i++ {
		r.Record(Event{Kind: KindFreeze, Bone: i})
	}

	recent := r.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("Ожидалось 3 события, получено %d", len(recent))
	}
	if recent[0].Bone != 2 || recent[2].Bone != 4 {
		t.Errorf("Должны остаться последние события: %+v", recent)
	}

	last := r.Recent(1)
	if len(last) != 1 || last[0].Bone != 4 {
		t.Errorf("Recent(1) должен вернуть последнее событие: %+v", last)
	}
}

func TestRecorder_SummaryResetsCounters(t *testing.T) {
	r := NewRecorder(10)
	r.Record(Event{Kind: KindJoin})
	r.Record(Event{Kind: KindFreeze})
	r.Record(Event{Kind: KindFreeze})

	summary := r.Summary()
	if len(summary) != 2 {
		t.Fatalf("Ожидалось 2 счетчика, получено %d", len(summary))
	}
	if summary[0].Kind != KindFreeze || summary[0].Count != 2 {
		t.Errorf("Ожидался freeze=2 первым, получено %+v", summary[0])
	}
	if len(r.Summary()) != 0 {
		t.Error("Счетчики должны сбрасываться после сводки")
	}
	if len(r.Recent(0)) != 3 {
		t.Error("Сводка не должна удалять события")
	}
}

func TestRecorder_TimestampAndJSON(t *testing.T) {
	r := NewRecorder(10)
	r.now = func() time.Time { return time.UnixMilli(1234) }
	r.Record(Event{Kind: KindGrab, Object: "crate-0"})

	data, err := r.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		t.Fatalf("Некорректный JSON: %v", err)
	}
	if len(events) != 1 || events[0].Timestamp != 1234 || events[0].Object != "crate-0" {
		t.Errorf("Неожиданные события: %+v", events)
	}
}

func TestRecorder_DisabledAndNil(t *testing.T) {
	r := NewRecorder(10)
	r.SetEnabled(false)
	r.Record(Event{Kind: KindJoin})
	if len(r.Recent(0)) != 0 {
		t.Error("Выключенный регистратор не должен записывать")
	}

	var nilRecorder *Recorder
	nilRecorder.Record(Event{Kind: KindJoin})

	r.SetEnabled(true)
	r.Record(Event{Kind: KindJoin})
	r.Clear()
	if len(r.Recent(0)) != 0 || len(r.Summary()) != 0 {
		t.Error("Clear должен очистить события и счетчики")
	}
}
