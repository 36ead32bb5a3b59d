package usage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	valkeymock "github.com/valkey-io/valkey-go/mock"
	"go.uber.org/mock/gomock"
)

func TestValkeyRecorder(t *testing.T) {
	t.Run("pushes the record to the endpoint list", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockClient := valkeymock.NewClient(ctrl)
		recorder := NewValkeyRecorder(mockClient)
		ctx := context.Background()

		mockClient.EXPECT().
			Do(ctx, valkeymock.MatchFn(func(cmd []string) bool {
				return cmd[0] == "RPUSH" &&
					cmd[1] == "switchboard:usage:openai-gpt4o" &&
					strings.Contains(cmd[2], `"total_tokens":42`)
			}, "RPUSH to the endpoint usage list")).
			Return(valkeymock.Result(valkeymock.ValkeyInt64(1)))

		err := recorder.Record(ctx, Record{
			Id:          "r1",
			Endpoint:    "openai-gpt4o",
			Provider:    "openai",
			Model:       "gpt-4o",
			RequestKind: "completion",
			TotalTokens: 42,
			Elapsed:     120 * time.Millisecond,
		})
		assert.NoError(t, err)
	})

	t.Run("propagates client errors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockClient := valkeymock.NewClient(ctrl)
		recorder := NewValkeyRecorder(mockClient)
		ctx := context.Background()

		mockClient.EXPECT().
			Do(ctx, gomock.Any()).
			Return(valkeymock.ErrorResult(assert.AnError))

		err := recorder.Record(ctx, Record{Id: "r2", Endpoint: "a"})
		assert.Error(t, err)
	})
}
