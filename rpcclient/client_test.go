package rpcclient

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundRPCErr(t *testing.T) {
	assert.True(t, isNotFoundRPCErr(&btcjson.RPCError{
		Code:    btcjson.ErrRPCInvalidAddressOrKey,
		Message: "No such mempool or blockchain transaction",
	}))
	assert.False(t, isNotFoundRPCErr(&btcjson.RPCError{Code: -999, Message: "some other failure"}))
	assert.False(t, isNotFoundRPCErr(errors.New("not an rpc error")))
}

func TestHexDecode(t *testing.T) {
	b, err := hexDecode("deadbeef")
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, []byte(b))

	_, err = hexDecode("not-hex")
	assert.Error(t, err)
}
