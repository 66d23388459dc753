package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/iudanet/syncstore/pkg/api"
)

// EncodeMessage serializes msg into a frame payload.
func EncodeMessage(msg api.Message, requestID uint16) ([]byte, error) {
	env, err := api.Encode(msg, requestID)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return data, nil
}

// DecodeMessage parses a frame payload into its message and correlation id.
func DecodeMessage(payload []byte) (api.Message, uint16, error) {
	var env api.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	msg, err := api.Decode(&env)
	if err != nil {
		return nil, env.RequestID, err
	}
	return msg, env.RequestID, nil
}
