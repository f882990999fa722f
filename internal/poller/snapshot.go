package poller

import (
	"time"

	"github.com/muurk/isoft/internal/device"
	"github.com/muurk/isoft/internal/register"
)

// Snapshot is the outcome of one poll cycle.
type Snapshot struct {
	Device   string
	At       time.Time
	Kinds    []device.Kind // polled kinds, in order
	Readings map[device.Kind]device.Reading
	Failures map[device.Kind]error
}

// Reading returns the reading for k, if the cycle produced one
func (s Snapshot) Reading(k device.Kind) (device.Reading, bool) {
	r, ok := s.Readings[k]
	return r, ok
}

// OK reports whether every polled measurement produced a value
func (s Snapshot) OK() bool {
	return len(s.Failures) == 0
}

// ReadingDoc is the JSON form of a reading shared by the MQTT and WebSocket
// outputs.
type ReadingDoc struct {
	Measurement string    `json:"measurement"`
	Value       float64   `json:"value"`
	Unit        string    `json:"unit"`
	Display     string    `json:"display"`
	Values      []uint32  `json:"values,omitempty"` // statistics only
	At          time.Time `json:"at"`
}

// NewReadingDoc converts a reading to its JSON form
func NewReadingDoc(r device.Reading) ReadingDoc {
	doc := ReadingDoc{
		Measurement: r.Kind.String(),
		Value:       r.Numeric,
		Unit:        r.Kind.Unit(),
		Display:     r.String(),
		At:          r.At.UTC(),
	}
	if stats, ok := r.Value.(register.Statistics); ok {
		doc.Values = stats.Values
	}
	return doc
}

// SnapshotDoc is the JSON form of a snapshot
type SnapshotDoc struct {
	Device   string            `json:"device"`
	At       time.Time         `json:"at"`
	Readings []ReadingDoc      `json:"readings"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// Doc converts the snapshot to its JSON form, readings in poll order
func (s Snapshot) Doc() SnapshotDoc {
	doc := SnapshotDoc{
		Device:   s.Device,
		At:       s.At.UTC(),
		Readings: make([]ReadingDoc, 0, len(s.Readings)),
	}
	for _, k := range s.Kinds {
		if r, ok := s.Readings[k]; ok {
			doc.Readings = append(doc.Readings, NewReadingDoc(r))
		}
	}
	if len(s.Failures) > 0 {
		doc.Errors = make(map[string]string, len(s.Failures))
		for k, err := range s.Failures {
			doc.Errors[k.String()] = device.GetShortErrorMessage(err)
		}
	}
	return doc
}
