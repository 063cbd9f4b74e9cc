package backend

import (
	"sort"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// scheduled is a message waiting for its dispatch time.
type scheduled struct {
	at  time.Time
	msg gomidi.Message
}

// queue keeps messages ordered by time; messages scheduled for the same
// time keep their insertion order.
type queue []scheduled

func (q *queue) push(at time.Time, msg gomidi.Message) {
	i := sort.Search(len(*q), func(i int) bool { return (*q)[i].at.After(at) })
	*q = append(*q, scheduled{})
	copy((*q)[i+1:], (*q)[i:])
	(*q)[i] = scheduled{at: at, msg: msg}
}

// popDue removes and returns the earliest message if it is due at now.
func (q *queue) popDue(now time.Time) (scheduled, bool) {
	if len(*q) == 0 || (*q)[0].at.After(now) {
		return scheduled{}, false
	}
	s := (*q)[0]
	*q = (*q)[1:]
	return s, true
}

func (q *queue) clear() { *q = nil }
