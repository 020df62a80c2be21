// Package publish hands key events to consumers outside of the hub: websocket clients and the console.
package publish

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tkw1536/gogokeyboard/key"
)

// Encode encodes an event as the JSON record sent to external consumers.
// The record has exactly the fields symbol, code, modifiers and is_pressed.
func Encode(event key.Event) ([]byte, error) {
	return json.Marshal(event)
}

// Decode decodes a record produced by Encode.
func Decode(data []byte) (event key.Event, err error) {
	err = json.Unmarshal(data, &event)
	if err != nil {
		err = errors.Wrap(err, "unable to decode key event")
	}
	return
}
