package endian

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWire_BigEndian(t *testing.T) {
	engine := Wire()

	buf := engine.AppendUint32(nil, 0x01020304)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, buf)

	buf = engine.AppendUint64(nil, 0x0102030405060708)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, buf)

	require.Equal(t, uint32(0xDEADBEEF), engine.Uint32([]byte{0xDE, 0xAD, 0xBE, 0xEF}))
}

func TestWire_IndependentOfHost(t *testing.T) {
	// The wire engine is fixed; Native only reports the host order.
	require.NotNil(t, Native())
	require.Equal(t, []byte{0x00, 0x01}, Wire().AppendUint16(nil, 1))
}
