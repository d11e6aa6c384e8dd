// Package replytest provides an in-memory reply.Responder for tests.
package replytest

import (
	"context"
	"sync"

	"github.com/m3rciful/gptbot/bot/reply"
)

// Kind names the Responder method that produced an Event.
type Kind string

const (
	KindImage       Kind = "image"
	KindText        Kind = "text"
	KindButtons     Kind = "buttons"
	KindPlaceholder Kind = "placeholder"
	KindDelete      Kind = "delete"
	KindMenu        Kind = "menu"
)

// Event is one recorded call.
type Event struct {
	Kind    Kind
	Text    string
	Rows    [][]reply.Button
	Message reply.Message
	Menu    []reply.MenuEntry
}

// Recorder records every call in order. Setting Err makes the named kinds fail.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	nextID int

	Err   error
	Fails map[Kind]bool
}

func (r *Recorder) record(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fails[e.Kind] {
		return r.Err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) SendImage(_ context.Context, key string) error {
	return r.record(Event{Kind: KindImage, Text: key})
}

func (r *Recorder) SendText(_ context.Context, text string) error {
	return r.record(Event{Kind: KindText, Text: text})
}

func (r *Recorder) SendButtons(_ context.Context, text string, rows [][]reply.Button) error {
	return r.record(Event{Kind: KindButtons, Text: text, Rows: rows})
}

func (r *Recorder) SendPlaceholder(_ context.Context, text string) (reply.Message, error) {
	r.mu.Lock()
	r.nextID++
	msg := reply.Message{ChatID: 1, ID: r.nextID}
	r.mu.Unlock()
	if err := r.record(Event{Kind: KindPlaceholder, Text: text, Message: msg}); err != nil {
		return reply.Message{}, err
	}
	return msg, nil
}

func (r *Recorder) Delete(_ context.Context, msg reply.Message) error {
	return r.record(Event{Kind: KindDelete, Message: msg})
}

func (r *Recorder) ShowMenu(_ context.Context, entries []reply.MenuEntry) error {
	return r.record(Event{Kind: KindMenu, Menu: entries})
}

// Events returns a copy of the recorded calls.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the recorded call kinds in order.
func (r *Recorder) Kinds() []Kind {
	events := r.Events()
	kinds := make([]Kind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	return kinds
}

// Last returns the most recent event of kind k.
func (r *Recorder) Last(k Kind) (Event, bool) {
	events := r.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind == k {
			return events[i], true
		}
	}
	return Event{}, false
}

// Reset forgets recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// ButtonData flattens the callback data of rows.
func ButtonData(rows [][]reply.Button) []string {
	var out []string
	for _, row := range rows {
		for _, b := range row {
			out = append(out, b.Data)
		}
	}
	return out
}
