package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMsgTypeCode(t *testing.T) {
	assert.Equal(t, "00", MsgJoin.Code())
	assert.Equal(t, "07", MsgRemoveMissile.Code())
	assert.Equal(t, "27", MsgGameOver.Code())
	assert.Equal(t, "sync_character", MsgSyncCharacter.String())
	assert.Equal(t, "unknown", msgTypeCount.String())
}

func TestEncodeMessage(t *testing.T) {
	assert.Equal(t, "03", Message{Type: MsgEndTurn}.Encode())
	assert.Equal(t, "10|5|1.5|-2|70", Message{Type: MsgBlast, Fields: []string{"5", "1.5", "-2", "70"}}.Encode())
}

func TestParseMessage(t *testing.T) {
	m, err := ParseMessage("03")
	require.NoError(t, err)
	assert.Equal(t, MsgEndTurn, m.Type)
	assert.Empty(t, m.Fields)

	m, err = ParseMessage("05|3|1|0")
	require.NoError(t, err)
	assert.Equal(t, MsgKill, m.Type)
	assert.Equal(t, []string{"3", "1", "0"}, m.Fields)
}

func TestParseMessageErrors(t *testing.T) {
	for _, line := range []string{"", "1", "ab", "05x1"} {
		_, err := ParseMessage(line)
		assert.ErrorIs(t, err, ErrMalformedFrame, "line %q", line)
	}
	for _, line := range []string{"28", "99|1", "-1|2"} {
		_, err := ParseMessage(line)
		assert.ErrorIs(t, err, ErrUnknownMessage, "line %q", line)
	}
}

func TestParseFrameKeepsGoodLines(t *testing.T) {
	msgs, errs := ParseFrame("03\n\nzz|1\n10|1|2|3|4\n99")
	require.Len(t, msgs, 2)
	assert.Equal(t, MsgEndTurn, msgs[0].Type)
	assert.Equal(t, MsgBlast, msgs[1].Type)
	assert.Len(t, errs, 2)
}

func TestFieldReader(t *testing.T) {
	m, err := ParseMessage("04|2|10.5|-3|1|4000000000")
	require.NoError(t, err)
	f := m.reader()
	assert.Equal(t, 2, f.int())
	assert.Equal(t, V(10.5, -3), f.vec())
	assert.True(t, f.bool())
	assert.Equal(t, uint32(4000000000), f.uint32())
	require.NoError(t, f.err)

	f.float()
	assert.ErrorIs(t, f.err, ErrMalformedFrame)
}

func TestFieldReaderKeepsFirstError(t *testing.T) {
	m, err := ParseMessage("06|x|1|2")
	require.NoError(t, err)
	f := m.reader()
	f.int()
	first := f.err
	require.Error(t, first)
	f.vec()
	assert.Equal(t, first, f.err)
}

func TestFloatsSurviveTheWire(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Float64().Draw(t, "v")
		if math.IsNaN(v) {
			t.Skip("NaN never goes on the wire")
		}
		m, err := ParseMessage(Message{Type: MsgBlast, Fields: []string{fmtFloat(v)}}.Encode())
		if err != nil {
			t.Fatal(err)
		}
		if got := m.reader().float(); got != v {
			t.Fatalf("%v came back as %v", v, got)
		}
	})
}
