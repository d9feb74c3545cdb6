package host

import (
	"context"
	"sync"

	"github.com/kashguard/go-eos-signer/internal/eos/actions"
	"github.com/kashguard/go-eos-signer/internal/infra/signing"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultChunkSize 未知动作每轮发送的最大字节数
const DefaultChunkSize = 512

var (
	ErrNoMoreActions  = errors.New("no more actions to send")
	ErrUnexpectedHint = errors.New("remaining bytes hint does not match host state")
)

// ScriptedHost 按顺序回放动作；未知动作的数据被切分为多个分片
type ScriptedHost struct {
	mu        sync.Mutex
	actions   []*actions.Action
	chunkSize int

	next    int
	pending []byte
}

// NewScriptedHost 创建脚本宿主
func NewScriptedHost(list []*actions.Action, chunkSize int) *ScriptedHost {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ScriptedHost{actions: list, chunkSize: chunkSize}
}

// RequestAction 实现 signing.Host
func (h *ScriptedHost) RequestAction(ctx context.Context, req signing.RequestAction) (*actions.Action, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if req.RemainingBytesHint > 0 {
		if int(req.RemainingBytesHint) != len(h.pending) {
			return nil, errors.Wrapf(ErrUnexpectedHint, "device wants %d bytes, host has %d", req.RemainingBytesHint, len(h.pending))
		}
		return &actions.Action{Payload: &actions.Unknown{DataChunk: h.take()}}, nil
	}

	if len(h.pending) > 0 {
		return nil, errors.Wrapf(ErrUnexpectedHint, "device asked for a new action with %d bytes unsent", len(h.pending))
	}
	if h.next >= len(h.actions) {
		return nil, ErrNoMoreActions
	}

	a := h.actions[h.next]
	h.next++

	unknown, ok := a.Payload.(*actions.Unknown)
	if !ok {
		return a, nil
	}

	log.Debug().
		Int("index", h.next-1).
		Uint32("size", unknown.DataSize).
		Int("chunk_size", h.chunkSize).
		Msg("Streaming unknown action")

	h.pending = unknown.DataChunk
	first := *a
	first.Payload = &actions.Unknown{DataSize: unknown.DataSize, DataChunk: h.take()}
	return &first, nil
}

func (h *ScriptedHost) take() []byte {
	n := h.chunkSize
	if n > len(h.pending) {
		n = len(h.pending)
	}
	chunk := h.pending[:n]
	h.pending = h.pending[n:]
	return chunk
}
