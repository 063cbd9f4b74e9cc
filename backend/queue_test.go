package backend

import (
	"testing"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestQueueOrder(t *testing.T) {
	base := time.Unix(0, 0)
	var q queue
	q.push(base.Add(3), gomidi.NoteOn(0, 3, 1))
	q.push(base.Add(1), gomidi.NoteOn(0, 1, 1))
	q.push(base.Add(3), gomidi.NoteOn(0, 4, 1))
	q.push(base.Add(2), gomidi.NoteOn(0, 2, 1))

	if _, ok := q.popDue(base); ok {
		t.Fatal("popped a message before it was due")
	}
	var keys []uint8
	for {
		s, ok := q.popDue(base.Add(10))
		if !ok {
			break
		}
		var ch, key, vel uint8
		s.msg.GetNoteOn(&ch, &key, &vel)
		keys = append(keys, key)
	}
	want := []uint8{1, 2, 3, 4}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys = %v, want %v", keys, want)
			break
		}
	}
}
