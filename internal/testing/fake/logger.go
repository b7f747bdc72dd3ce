package fake

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// LogBuffer keeps the entries written by a logger.
type LogBuffer struct {
	sync.Mutex
	buf bytes.Buffer
}

// Logger returns a logger writing JSON entries into the buffer.
func (b *LogBuffer) Logger() zerolog.Logger {
	return zerolog.New(b)
}

// Write implements io.Writer.
func (b *LogBuffer) Write(p []byte) (int, error) {
	b.Lock()
	defer b.Unlock()

	return b.buf.Write(p)
}

// Messages returns the message of each entry in order.
func (b *LogBuffer) Messages() []string {
	b.Lock()
	defer b.Unlock()

	msgs := []string{}

	dec := json.NewDecoder(bytes.NewReader(b.buf.Bytes()))
	for dec.More() {
		var entry struct {
			Message string `json:"message"`
		}

		if dec.Decode(&entry) != nil {
			break
		}

		msgs = append(msgs, entry.Message)
	}

	return msgs
}
