package voucher

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testTxID = strings.Repeat("ab", 32)
	testKey  = strings.Repeat("01", 32)
	testPub  = strings.Repeat("cd", 32)
)

func testVoucher() *Voucher {
	return &Voucher{
		Chain:      "tbsv",
		TxID:       testTxID,
		Vout:       0,
		PrivateKey: testKey,
		Amount:     1000000,
	}
}

func TestParse_ShortForm(t *testing.T) {
	uri := "txo:tbtc4:" + testTxID + ":0?key=" + testKey + "&amount=1000000"
	v, err := Parse(uri)
	require.NoError(t, err)

	assert.Equal(t, "tbtc4", v.Chain)
	assert.Equal(t, testTxID, v.TxID)
	assert.Equal(t, uint32(0), v.Vout)
	assert.Equal(t, testKey, v.PrivateKey)
	assert.Equal(t, uint64(1000000), v.Amount)
	assert.Empty(t, v.PubKey)
}

func TestParse_URNForm(t *testing.T) {
	uri := "urn:voucher:txo:tbsv:" + testTxID + ":2?key=" + testKey + "&amount=5000&pubkey=" + testPub
	v, err := Parse(uri)
	require.NoError(t, err)

	assert.Equal(t, uint32(2), v.Vout)
	assert.Equal(t, testPub, v.PubKey)
}

func TestParse_RoundTrip(t *testing.T) {
	vouchers := []*Voucher{
		testVoucher(),
		{Chain: "bsv", TxID: testTxID, Vout: 7, PrivateKey: testKey, Amount: 1, PubKey: testPub},
	}
	for _, v := range vouchers {
		got, err := Parse(v.URI())
		require.NoError(t, err)
		assert.Equal(t, v, got)

		got, err = Parse(v.URN())
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{"empty", ""},
		{"wrong scheme", "utxo:tbsv:" + testTxID + ":0?key=" + testKey + "&amount=1"},
		{"missing segments", "txo:tbsv:" + testTxID + "?key=" + testKey + "&amount=1"},
		{"missing key", "txo:tbsv:" + testTxID + ":0?amount=1"},
		{"missing amount", "txo:tbsv:" + testTxID + ":0?key=" + testKey},
		{"short key", "txo:tbsv:" + testTxID + ":0?key=abcd&amount=1"},
		{"negative vout", "txo:tbsv:" + testTxID + ":-1?key=" + testKey + "&amount=1"},
		{"negative amount", "txo:tbsv:" + testTxID + ":0?key=" + testKey + "&amount=-5"},
		{"bad txid", "txo:tbsv:xyz:0?key=" + testKey + "&amount=1"},
		{"bad pubkey", "txo:tbsv:" + testTxID + ":0?key=" + testKey + "&amount=1&pubkey=zz"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Parse(tc.uri)
			assert.ErrorIs(t, err, ErrInvalidFormat)
			assert.Nil(t, v)
		})
	}
}

func TestRedeem_WithChange(t *testing.T) {
	v := testVoucher()
	r, err := Redeem(v, testPub, 600000, 1000)
	require.NoError(t, err)

	assert.Equal(t, uint64(600000), r.UserAmount)
	assert.Equal(t, uint64(399000), r.Remainder)
	assert.False(t, r.Exhausted())

	require.NotNil(t, r.Change)
	assert.Equal(t, v.PrivateKey, r.Change.PrivateKey)
	assert.Equal(t, uint32(ChangeVout), r.Change.Vout)
	assert.Equal(t, uint64(399000), r.Change.Amount)
	assert.Empty(t, r.Change.TxID)

	r.BindTxID(strings.Repeat("ee", 32))
	assert.Equal(t, strings.Repeat("ee", 32), r.Change.TxID)
}

func TestRedeem_CapsAtAvailable(t *testing.T) {
	v := testVoucher()
	v.Amount = 5000

	r, err := Redeem(v, testPub, 1000000, 1000)
	require.NoError(t, err)

	assert.Equal(t, uint64(4000), r.UserAmount)
	assert.Equal(t, uint64(0), r.Remainder)
	assert.True(t, r.Exhausted())
	assert.Nil(t, r.Change)
}

func TestRedeem_Conservation(t *testing.T) {
	v := testVoucher()
	for _, desired := range []uint64{1, 999, 500000, v.Amount, v.Amount * 2} {
		r, err := Redeem(v, testPub, desired, 750)
		require.NoError(t, err)
		assert.Equal(t, v.Amount, r.UserAmount+r.Remainder+r.Fee,
			"conservation violated for desired=%d", desired)
	}
}

func TestRedeem_Insufficient(t *testing.T) {
	v := testVoucher()
	v.Amount = 1000

	_, err := Redeem(v, testPub, 500, 1000)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = Redeem(v, testPub, 0, 100)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestRedeem_BadRecipient(t *testing.T) {
	_, err := Redeem(testVoucher(), "short", 100, 10)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voucher.txt")
	v := testVoucher()

	require.NoError(t, v.SaveFile(path))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrNotFound)
}
