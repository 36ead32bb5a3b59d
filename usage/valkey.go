package usage

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/valkey-io/valkey-go"
)

// ValkeyRecorder appends usage records to per-endpoint Valkey lists so they
// survive process restarts and can be aggregated across instances.
type ValkeyRecorder struct {
	client valkey.Client
}

func NewValkeyRecorder(client valkey.Client) *ValkeyRecorder {
	return &ValkeyRecorder{client: client}
}

func (r *ValkeyRecorder) Record(ctx context.Context, record Record) error {
	key := fmt.Sprintf("switchboard:usage:%s", record.Endpoint)

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal usage record: %v", err)
	}

	return r.client.Do(
		ctx, r.client.B().Rpush().
			Key(key).
			Element(string(data)).
			Build(),
	).Error()
}
