package record

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/tkw1536/gogokeyboard/hub"
	"github.com/tkw1536/gogokeyboard/key"
	"github.com/tkw1536/gogokeyboard/logging"
)

var recordLogger zerolog.Logger

func init() {
	logging.ComponentLogger("record.Record", &recordLogger)
}

// Record appends every event of sub to store, in the order they were dispatched.
// It returns once sub ends, ctx is done, or store fails.
func Record(ctx context.Context, sub *hub.Subscription, store Store) error {
	var seq uint64
	err := sub.Each(ctx, func(event key.Event) error {
		seq++
		return store.Append(Entry{Seq: seq, At: time.Now(), Event: event})
	})
	recordLogger.Info().Uint64("entries", seq).AnErr("error", err).Msg("recording finished")
	return err
}
