// Package catalog models the activity catalog served by the activities API.
//
// The API returns the catalog as a single JSON object keyed by activity name. The object's key
// order is meaningful: it is the order activities are displayed in. encoding/json cannot
// preserve object order when decoding into a map, so Decode walks the document with gjson and
// builds an ordered Catalog.
package catalog

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidJSON is returned when the payload is not valid JSON.
	ErrInvalidJSON = errors.New("invalid catalog JSON")
	// ErrNotObject is returned when the payload is valid JSON but not an object.
	ErrNotObject = errors.New("catalog is not a JSON object")
)

// Activity is a single enrollable activity.
type Activity struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// SpotsLeft is the remaining capacity. The server owns the capacity invariant, so the result is
// not clamped and may be zero or negative.
func (a Activity) SpotsLeft() int {
	return a.MaxParticipants - len(a.Participants)
}

// Entry pairs an activity with its name.
type Entry struct {
	Name     string
	Activity Activity
}

// Catalog is an ordered set of activities, in the order the server supplied them.
type Catalog []Entry

// Names returns the activity names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, e := range c {
		names[i] = e.Name
	}
	return names
}

// Lookup returns the activity with the given name.
func (c Catalog) Lookup(name string) (Activity, bool) {
	for _, e := range c {
		if e.Name == name {
			return e.Activity, true
		}
	}
	return Activity{}, false
}

// Decode parses a catalog payload, preserving the object's key order.
// A repeated key keeps its first position and takes the last value, the same way a JavaScript
// object literal behaves.
func Decode(data []byte) (Catalog, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, ErrNotObject
	}

	var c Catalog
	var decErr error
	index := make(map[string]int)
	root.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		a, err := decodeActivity(value)
		if err != nil {
			decErr = fmt.Errorf("activity %q: %w", name, err)
			return false
		}
		if i, ok := index[name]; ok {
			c[i].Activity = a
			return true
		}
		index[name] = len(c)
		c = append(c, Entry{Name: name, Activity: a})
		return true
	})
	if decErr != nil {
		return nil, decErr
	}
	return c, nil
}

func decodeActivity(v gjson.Result) (Activity, error) {
	if !v.IsObject() {
		return Activity{}, fmt.Errorf("expected object, got %s", v.Type)
	}

	maxParticipants := v.Get("max_participants")
	if maxParticipants.Type != gjson.Number {
		return Activity{}, errors.New("max_participants must be a number")
	}

	participants := v.Get("participants")
	if !participants.IsArray() {
		return Activity{}, errors.New("participants must be an array")
	}

	a := Activity{
		Description:     v.Get("description").String(),
		Schedule:        v.Get("schedule").String(),
		MaxParticipants: int(maxParticipants.Int()),
		Participants:    make([]string, 0, len(participants.Array())),
	}
	for _, p := range participants.Array() {
		a.Participants = append(a.Participants, p.String())
	}
	return a, nil
}
