package ddbstore

import (
	"bytes"
	"testing"

	"github.com/acksell/carpenter/dynamodb/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeNumber_PreservesOrder(t *testing.T) {
	ordered := []string{
		"-1e10", "-100", "-12.3", "-12.25", "-12.2", "-1.5", "-0.001", "-1E-130",
		"0",
		"1E-130", "0.001", "1", "1.5", "2", "12.2", "12.25", "12.3", "100", "1e10",
		"12345678901234567890", "12345678901234567891", "9.99E+125",
	}
	var prev []byte
	for _, n := range ordered {
		enc, err := encodeNumber(n)
		require.NoError(t, err)
		if prev != nil {
			assert.Negative(t, bytes.Compare(prev, enc), "%s should sort after its predecessor", n)
		}
		prev = enc
	}
}

func TestEncodeNumber_Exact(t *testing.T) {
	a, err := encodeNumber("12345678901234567890")
	require.NoError(t, err)
	b, err := encodeNumber("12345678901234567891")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	a, err = encodeNumber("-0.12345678901234567890123456789012345678")
	require.NoError(t, err)
	b, err = encodeNumber("-0.12345678901234567890123456789012345677")
	require.NoError(t, err)
	assert.Negative(t, bytes.Compare(a, b))
}

func TestEncodeNumber_SameValueSameKey(t *testing.T) {
	spellings := [][]string{
		{"100", "1e2", "1E+2", "100.00", "0100", "+100", "0.1e3"},
		{"0", "-0", "0.000", "0e10"},
		{"-1.5", "-15e-1", "-001.50"},
	}
	for _, same := range spellings {
		want, err := encodeNumber(same[0])
		require.NoError(t, err)
		for _, n := range same[1:] {
			got, err := encodeNumber(n)
			require.NoError(t, err)
			assert.Equal(t, want, got, "%s and %s", same[0], n)
		}
	}
}

func TestEncodeNumber_Invalid(t *testing.T) {
	for _, n := range []string{"", "twelve", "-", ".", "1.2.3", "1e", "1e+", "0x10", "1 ", "NaN", "Infinity",
		"1e126", "1e-131", "123456789012345678901234567890123456789"} {
		_, err := encodeNumber(n)
		assert.Error(t, err, n)
	}
}

func TestEncodeItemKey(t *testing.T) {
	def := table.PrimaryKeyDefinition{
		PartitionKey: table.KeyDef{Name: "pk", Kind: table.KeyKindS},
		SortKey:      table.KeyDef{Name: "sk", Kind: table.KeyKindB},
	}
	key := func(pk string, sk []byte) []byte {
		enc, err := encodeItemKey("t", table.PrimaryKey{
			Definition: def,
			Values:     table.PrimaryKeyValues{PartitionKey: pk, SortKey: sk},
		})
		require.NoError(t, err)
		return enc
	}

	assert.True(t, bytes.HasPrefix(key("a", []byte{1}), tablePrefix("t")))
	// separators inside values don't leak into neighbouring components
	assert.NotEqual(t, key("a\x00", []byte{}), key("a", []byte{0}))
	assert.Negative(t, bytes.Compare(key("a", []byte{0xff}), key("b", []byte{0})))
	assert.Negative(t, bytes.Compare(key("a", []byte{0}), key("a", []byte{1})))

	_, err := encodeKeyValue(42, table.KeyKindS)
	assert.Error(t, err)
	_, err = encodeKeyValue("x", table.KeyKind("BOOL"))
	assert.Error(t, err)
}
