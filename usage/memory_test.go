package usage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRecorder(t *testing.T) {
	t.Run("records are returned in order", func(t *testing.T) {
		recorder := NewMemoryRecorder()
		ctx := context.Background()

		require.NoError(t, recorder.Record(ctx, Record{Id: "1", Endpoint: "a", TotalTokens: 10}))
		require.NoError(t, recorder.Record(ctx, Record{Id: "2", Endpoint: "b", TotalTokens: 20}))

		records := recorder.Records()
		require.Len(t, records, 2)
		assert.Equal(t, "1", records[0].Id)
		assert.Equal(t, "b", records[1].Endpoint)
	})

	t.Run("Records returns a copy", func(t *testing.T) {
		recorder := NewMemoryRecorder()
		require.NoError(t, recorder.Record(context.Background(), Record{Id: "1"}))

		records := recorder.Records()
		records[0].Id = "mutated"

		assert.Equal(t, "1", recorder.Records()[0].Id)
	})

	t.Run("concurrent recording is safe", func(t *testing.T) {
		recorder := NewMemoryRecorder()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				recorder.Record(context.Background(), Record{
					Id:      fmt.Sprintf("r%d", i),
					Elapsed: time.Duration(i) * time.Millisecond,
				})
			}(i)
		}
		wg.Wait()

		assert.Len(t, recorder.Records(), 20)
	})
}
