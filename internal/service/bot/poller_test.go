package bot

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dvizh-wroclaw/dvizh-bot/internal/telegram"
)

// runPoll runs the poll loop until the updates source runs out of script,
// then cancels and waits for a clean exit.
func runPoll(t *testing.T, f *fixture, settle time.Duration) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)

	go f.service.poll(ctx, &wg)

	time.Sleep(settle)
	cancel()
	wg.Wait()
}

func TestPoll_OffsetAdvances(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t)
	f.updates.batches = [][]telegram.RawUpdate{
		{
			{UpdateID: 41, Raw: messageUpdate(41, -100, "ola", "/hello")},
			{UpdateID: 42, Raw: messageUpdate(42, -100, "ola", "/hello")},
		},
		{
			{UpdateID: 43, Raw: messageUpdate(43, -100, "ola", "/hello")},
		},
	}

	runPoll(t, f, 100*time.Millisecond)

	// First call starts at 0, then each batch moves the offset past its last update.
	assert.Equal(t, []int64{0, 43, 44}, f.updates.seenOffsets())
	assert.Len(t, f.messenger.callsTo("sendMessage"), 3)
}

func TestPoll_HandlerFailureStillAdvances(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t)
	f.messenger.failWith["sendMessage"] = errBoom
	f.updates.batches = [][]telegram.RawUpdate{
		{
			{UpdateID: 41, Raw: messageUpdate(41, -100, "ola", "/hello")},
		},
	}

	runPoll(t, f, 100*time.Millisecond)

	// The failed update is not refetched.
	assert.Equal(t, []int64{0, 42}, f.updates.seenOffsets())
}

func TestPoll_TransportFailureKeepsOffset(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t)
	f.updates.errs = []error{errBoom}
	f.updates.batches = [][]telegram.RawUpdate{
		{
			{UpdateID: 41, Raw: messageUpdate(41, -100, "ola", "/hello")},
		},
	}

	// Needs to outlast the initial 1s retry backoff.
	runPoll(t, f, 1500*time.Millisecond)

	offsets := f.updates.seenOffsets()
	require.GreaterOrEqual(t, len(offsets), 2)

	// The failed fetch is retried with the same offset, then the batch advances it.
	assert.Equal(t, int64(0), offsets[0])
	assert.Equal(t, int64(0), offsets[1])
	if len(offsets) > 2 {
		assert.Equal(t, int64(42), offsets[2])
	}
}

func TestPoll_MalformedUpdateIsAcked(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t)
	f.updates.batches = [][]telegram.RawUpdate{
		{
			{UpdateID: 41, Raw: json.RawMessage(`{"update_id": 41, "message": {"weird": {"chat": {"id": -100}}}}`)},
		},
	}

	runPoll(t, f, 100*time.Millisecond)

	// The apology went out and the update was not refetched.
	sends := f.messenger.callsTo("sendMessage")
	require.Len(t, sends, 1)
	assert.Equal(t, "Something went wrong.", sends[0].params["text"])

	assert.Equal(t, []int64{0, 42}, f.updates.seenOffsets())
}
