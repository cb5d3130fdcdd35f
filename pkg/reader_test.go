package leptons

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource hands out prepared events.
type sliceSource struct {
	events []*Event
	next   int
	err    error
}

func (s *sliceSource) Next() (*Event, error) {
	if s.next >= len(s.events) {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	e := s.events[s.next]
	s.next++
	return e, nil
}

func idEvents(n int) []*Event {
	events := make([]*Event, n)
	for i := range events {
		events[i] = &Event{ID: uint64(100 + i)}
	}
	return events
}

func readIDs(t *testing.T, source EventSource) []uint64 {
	t.Helper()
	var ids []uint64
	for {
		event, err := source.Next()
		if errors.Is(err, io.EOF) {
			return ids
		}
		require.NoError(t, err)
		ids = append(ids, event.ID)
	}
}

func TestJSONLRoundTrip(t *testing.T) {
	for _, name := range []string{"events.jsonl", "events.jsonl.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			in := leptonEvent(t, 42)
			in.Dataset = Simulated
			in.Scalars = map[string]float64{"reweightPU": 1.1}

			w, err := CreateJSONL(path, 3)
			require.NoError(t, err)
			require.NoError(t, w.Write(in))
			require.NoError(t, w.Write(&Event{ID: 43}))
			require.NoError(t, w.Close())

			r, err := OpenJSONL(path)
			require.NoError(t, err)
			defer r.Close()
			out, err := r.Next()
			require.NoError(t, err)
			assert.Equal(t, in, out)
			second, err := r.Next()
			require.NoError(t, err)
			assert.Equal(t, uint64(43), second.ID)
			_, err = r.Next()
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestJSONLReaderBadLine(t *testing.T) {
	r := NewJSONLReader(strings.NewReader(`{"event": 1, "dataset": "data"}` + "\n" + `{"event": "x"}` + "\n"))
	event, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), event.ID)
	_, err = r.Next()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestJSONLReaderRequiresDataset(t *testing.T) {
	r := NewJSONLReader(strings.NewReader(`{"event": 4, "dataset": "mc", "period": "2018"}` + "\n" + `{"event": 5, "period": "2018"}` + "\n"))
	event, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, Simulated, event.Dataset)
	assert.Equal(t, "2018", event.Period)

	_, err = r.Next()
	var missing *MissingAttributeError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "dataset", missing.Attribute)
}

func TestOpenJSONLMissingFile(t *testing.T) {
	_, err := OpenJSONL(filepath.Join(t.TempDir(), "none.jsonl"))
	var openErr *ErrOpenFile
	assert.True(t, errors.As(err, &openErr))
}

func TestLimit(t *testing.T) {
	ids := readIDs(t, Limit(&sliceSource{events: idEvents(10)}, 3, 6, 0))
	assert.Equal(t, []uint64{103, 104, 105}, ids)

	ids = readIDs(t, Limit(&sliceSource{events: idEvents(4)}, 0, 1000, 0))
	assert.Equal(t, []uint64{100, 101, 102, 103}, ids)

	ids = readIDs(t, Limit(&sliceSource{events: idEvents(4)}, 10, 1000, 0))
	assert.Empty(t, ids)
}
