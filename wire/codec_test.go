package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAvatar() Avatar {
	a := Avatar{
		Head:       Segment{X: 120, Y: 200},
		BodyLength: 3,
		Alive:      true,
	}
	a.Body[0] = Segment{X: 120, Y: 180}
	a.Body[1] = Segment{X: 120, Y: 160}
	a.Body[2] = Segment{X: 120, Y: 140}
	return a
}

func TestRecordSizes(t *testing.T) {
	assert.Equal(t, 408, AvatarSize)
	assert.Equal(t, 420, HandshakeSize)
	assert.Equal(t, 412, UplinkSize)
	assert.Equal(t, 416, DownlinkSize)
}

func TestAvatarLayout(t *testing.T) {
	a := sampleAvatar()
	b := MarshalAvatar(a)

	assert.Equal(t, int32(120), int32(binary.LittleEndian.Uint32(b[0:])))
	assert.Equal(t, int32(200), int32(binary.LittleEndian.Uint32(b[4:])))
	assert.Equal(t, int32(180), int32(binary.LittleEndian.Uint32(b[12:])))

	lengthOff := SegmentSize + BodyCapacity*SegmentSize
	assert.Equal(t, int32(3), int32(binary.LittleEndian.Uint32(b[lengthOff:])))
	assert.Equal(t, byte(1), b[lengthOff+4])
	assert.Equal(t, []byte{0, 0, 0}, b[lengthOff+5:])
}

func TestDownlinkLayout(t *testing.T) {
	b := MarshalDownlink(Downlink{Started: true, SenderID: 3, Avatar: sampleAvatar()})

	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(b[0:]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(b[4:]))

	got, err := UnmarshalDownlink(b)
	require.NoError(t, err)
	assert.True(t, got.Started)
	assert.Equal(t, int32(3), got.SenderID)
	assert.Equal(t, sampleAvatar(), got.Avatar)
}

func TestNegativeCoordinatesSurvive(t *testing.T) {
	got, err := UnmarshalAvatar(MarshalAvatar(SentinelAvatar()))
	require.NoError(t, err)
	assert.False(t, got.Drawable())
	assert.Equal(t, int32(-1), got.Head.X)
}

func TestUnmarshalWrongSize(t *testing.T) {
	_, err := UnmarshalUplink(make([]byte, UplinkSize-1))
	assert.ErrorIs(t, err, ErrShortRecord)

	_, err = UnmarshalHandshake(nil)
	assert.ErrorIs(t, err, ErrShortRecord)
}

func TestStreamedRecordsStayAligned(t *testing.T) {
	var buf bytes.Buffer
	h := Handshake{PlayerID: 2, Avatar: sampleAvatar(), Direction: Direction{DX: 0, DY: 20}}
	require.NoError(t, WriteHandshake(&buf, h))
	for id := int32(1); id <= 3; id++ {
		require.NoError(t, WriteDownlink(&buf, Downlink{SenderID: id, Avatar: sampleAvatar()}))
	}

	gotH, err := ReadHandshake(&buf)
	require.NoError(t, err)
	assert.Equal(t, h, gotH)
	for id := int32(1); id <= 3; id++ {
		d, err := ReadDownlink(&buf)
		require.NoError(t, err)
		assert.Equal(t, id, d.SenderID)
	}
	assert.Zero(t, buf.Len())
}

func TestReadDisconnect(t *testing.T) {
	t.Run("clean EOF", func(t *testing.T) {
		_, err := ReadUplink(bytes.NewReader(nil))
		assert.ErrorIs(t, err, ErrDisconnected)
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("short record", func(t *testing.T) {
		_, err := ReadUplink(bytes.NewReader(make([]byte, 10)))
		assert.ErrorIs(t, err, ErrDisconnected)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}

func TestAvatarHelpers(t *testing.T) {
	a := sampleAvatar()
	assert.Len(t, a.Segments(), 4)
	assert.True(t, a.Occupies(Segment{X: 120, Y: 140}))
	assert.False(t, a.Occupies(a.Body[3]), "slots past BodyLength are ignored")

	a.BodyLength = 1000
	assert.Len(t, a.Segments(), MaxLength, "garbage lengths are clamped")
}

func TestAvatarLen(t *testing.T) {
	tests := []struct {
		length int32
		want   int
	}{
		{length: -3, want: 0},
		{length: 0, want: 0},
		{length: 7, want: 7},
		{length: BodyCapacity, want: BodyCapacity},
		{length: 1000, want: BodyCapacity},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Avatar{BodyLength: tt.length}.Len(), "BodyLength %d", tt.length)
	}
}
