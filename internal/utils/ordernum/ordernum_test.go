package ordernum_test

import (
	"testing"

	"github.com/storekit/storefront_backend/internal/utils/ordernum"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "ORD-000001", ordernum.Format(1))
	assert.Equal(t, "ORD-000042", ordernum.Format(42))
	assert.Equal(t, "ORD-1000000", ordernum.Format(1000000), "counter may outgrow the padding")
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantSeq int64
		wantOK  bool
	}{
		{name: "well formed", input: "ORD-000042", wantSeq: 42, wantOK: true},
		{name: "unpadded", input: "ORD-7", wantSeq: 7, wantOK: true},
		{name: "missing prefix", input: "000042", wantOK: false},
		{name: "foreign prefix", input: "INV-000042", wantOK: false},
		{name: "garbage suffix", input: "ORD-forty2", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, ok := ordernum.Parse(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantSeq, seq)
			}
		})
	}
}

func TestNext_SequenceIncrementsByOne(t *testing.T) {
	current := ordernum.First()
	for i := 2; i <= 5; i++ {
		next := ordernum.Next(current)
		seq, ok := ordernum.Parse(next)
		assert.True(t, ok)
		assert.EqualValues(t, i, seq, "sequence must strictly increase by 1")
		current = next
	}
	assert.Equal(t, "ORD-000005", current)
}

func TestNext_CorruptedInputRestartsAtOne(t *testing.T) {
	assert.Equal(t, "ORD-000001", ordernum.Next("garbled"))
}
