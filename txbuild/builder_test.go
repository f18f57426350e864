package txbuild

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

var (
	testTxID = strings.Repeat("ab", 32)
	// Generator point: secret key 1.
	testPriv = "0000000000000000000000000000000000000000000000000000000000000001"
	testPubX = "79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
)

func xOnly(priv *ec.PrivateKey) string {
	return hex.EncodeToString(priv.PubKey().Compressed()[1:])
}

func TestBuild(t *testing.T) {
	dest, err := ec.NewPrivateKey()
	require.NoError(t, err)

	built, err := SDKBuilder{}.Build(BuildParams{
		PrivateKey:  testPriv,
		PublicKey:   testPubX,
		TxID:        testTxID,
		Vout:        0,
		InputAmount: 10000,
		Outputs: []Output{
			{PubKey: xOnly(dest), Amount: 9500},
		},
	})
	require.NoError(t, err)

	assert.Len(t, built.TxID, 64)
	assert.NotEmpty(t, built.Hex)

	raw, err := hex.DecodeString(built.Hex)
	require.NoError(t, err)
	assert.Greater(t, len(raw), 100)
}

func TestBuild_Deterministic_TxIDChangesWithOutputs(t *testing.T) {
	dest, err := ec.NewPrivateKey()
	require.NoError(t, err)

	p := BuildParams{
		PrivateKey:  testPriv,
		TxID:        testTxID,
		InputAmount: 10000,
		Outputs:     []Output{{PubKey: xOnly(dest), Amount: 9000}},
	}
	a, err := SDKBuilder{}.Build(p)
	require.NoError(t, err)

	p.Outputs[0].Amount = 8000
	b, err := SDKBuilder{}.Build(p)
	require.NoError(t, err)

	assert.NotEqual(t, a.TxID, b.TxID)
}

func TestBuild_TwoOutputs(t *testing.T) {
	dest, err := ec.NewPrivateKey()
	require.NoError(t, err)
	change, err := ec.NewPrivateKey()
	require.NoError(t, err)

	built, err := SDKBuilder{}.Build(BuildParams{
		PrivateKey:  testPriv,
		TxID:        testTxID,
		InputAmount: 10000,
		Outputs: []Output{
			{PubKey: xOnly(dest), Amount: 4000},
			{PubKey: xOnly(change), Amount: 5000},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, built.Hex)
}

func TestBuild_InsufficientFunds(t *testing.T) {
	_, err := SDKBuilder{}.Build(BuildParams{
		PrivateKey:  testPriv,
		TxID:        testTxID,
		InputAmount: 1000,
		Outputs:     []Output{{PubKey: testPubX, Amount: 2000}},
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestBuild_InvalidInputs(t *testing.T) {
	valid := BuildParams{
		PrivateKey:  testPriv,
		TxID:        testTxID,
		InputAmount: 10000,
		Outputs:     []Output{{PubKey: testPubX, Amount: 1000}},
	}

	p := valid
	p.PrivateKey = "zz"
	_, err := SDKBuilder{}.Build(p)
	assert.ErrorIs(t, err, ErrInvalidKey)

	p = valid
	p.PrivateKey = strings.Repeat("0", 64) // zero scalar
	_, err = SDKBuilder{}.Build(p)
	assert.ErrorIs(t, err, ErrInvalidKey)

	p = valid
	p.PublicKey = strings.Repeat("11", 32) // mismatched pubkey
	_, err = SDKBuilder{}.Build(p)
	assert.ErrorIs(t, err, ErrInvalidKey)

	p = valid
	p.Outputs = nil
	_, err = SDKBuilder{}.Build(p)
	assert.ErrorIs(t, err, ErrBuildFailed)
}

func TestLiftXOnly(t *testing.T) {
	pub, err := LiftXOnly(testPubX)
	require.NoError(t, err)
	assert.Equal(t, byte(0x02), pub.Compressed()[0])

	_, err = LiftXOnly("abcd")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestLiftedPrivateKey_ParityNormalization(t *testing.T) {
	// For any secret, the normalized key's pubkey must have even Y and
	// share the X coordinate with the original.
	for i := 0; i < 8; i++ {
		orig, err := ec.NewPrivateKey()
		require.NoError(t, err)
		raw := make([]byte, 32)
		orig.D.FillBytes(raw)
		secretHex := hex.EncodeToString(raw)

		lifted, err := liftedPrivateKey(secretHex)
		require.NoError(t, err)

		assert.Equal(t, byte(0x02), lifted.PubKey().Compressed()[0])
		assert.Equal(t, xOnly(orig), xOnly(lifted))
	}
}
