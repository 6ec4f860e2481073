package seqlistener

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev7ba/mempool-server/mempool/types"
)

func rawHash(b byte) []byte {
	h := make([]byte, 32)
	h[0] = b
	return h
}

func TestDecodeTxAdded(t *testing.T) {
	body := append(rawHash(0xAB), byte(labelTxAdded))
	ev, ok := decode([][]byte{[]byte(sequenceTopic), body})
	require.True(t, ok)
	assert.Equal(t, types.EventTxAdded, ev.Kind)
}

func TestDecodeTxRemoved(t *testing.T) {
	body := append(rawHash(0xCD), byte(labelTxRemoved))
	seqBuf := make([]byte, 8)
	binary.LittleEndian.PutUint64(seqBuf, 42)
	body = append(body, seqBuf...)

	ev, ok := decode([][]byte{[]byte(sequenceTopic), body})
	require.True(t, ok)
	assert.Equal(t, types.EventTxRemoved, ev.Kind)
}

func TestDecodeBlockConnectionAndDisconnection(t *testing.T) {
	connected := append(rawHash(1), byte(labelBlockConnected))
	ev, ok := decode([][]byte{[]byte(sequenceTopic), connected})
	require.True(t, ok)
	assert.Equal(t, types.EventBlockConnection, ev.Kind)
	assert.NotEmpty(t, ev.BlockHash)

	disconnected := append(rawHash(2), byte(labelBlockDisconnected))
	ev, ok = decode([][]byte{[]byte(sequenceTopic), disconnected})
	require.True(t, ok)
	assert.Equal(t, types.EventBlockDisconnection, ev.Kind)
}

func TestDecodeRejectsWrongTopic(t *testing.T) {
	body := append(rawHash(1), byte(labelTxAdded))
	_, ok := decode([][]byte{[]byte("hashtx"), body})
	assert.False(t, ok)
}

func TestDecodeRejectsShortBody(t *testing.T) {
	_, ok := decode([][]byte{[]byte(sequenceTopic), {1, 2, 3}})
	assert.False(t, ok)
}

func TestDecodeRejectsUnknownLabel(t *testing.T) {
	body := append(rawHash(1), byte('Z'))
	_, ok := decode([][]byte{[]byte(sequenceTopic), body})
	assert.False(t, ok)
}

func TestReverseHashByteOrder(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03}
	assert.Equal(t, "030201", reverseHash(in))
}

func TestMempoolSeqNumberExtractsTrailingCounter(t *testing.T) {
	body := append(rawHash(1), byte(labelTxAdded))
	seqBuf := make([]byte, 8)
	binary.LittleEndian.PutUint64(seqBuf, 7)
	body = append(body, seqBuf...)

	n, ok := mempoolSeqNumber(body)
	require.True(t, ok)
	assert.Equal(t, uint64(7), n)
}
