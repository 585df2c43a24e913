package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reorder/internal/model"
)

func TestItemCodec_RoundTrip(t *testing.T) {
	item := model.DraggableItem{
		ID:            "goal-2",
		Position:      1,
		Kind:          model.KindChildMember,
		ParentGroupID: "goal-1",
		Payload:       json.RawMessage(`{"due":"2026-12-31"}`),
	}

	data, err := ItemCodec{}.Encode(item)
	require.NoError(t, err)

	got, err := ItemCodec{}.Decode(data, nil)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, item.Kind, got.Kind)
	assert.Equal(t, item.ParentGroupID, got.ParentGroupID)
	assert.JSONEq(t, string(item.Payload), string(got.Payload))
}

func TestItemCodec_Malformed(t *testing.T) {
	for _, payload := range []string{"not-json", "", "null", "{}", `{"id":""}`, `{"id":"a","kind":"x"}`} {
		_, err := ItemCodec{}.Decode([]byte(payload), nil)
		require.Error(t, err, "payload %q", payload)
		assert.True(t, IsMalformedPayload(err), "payload %q", payload)
	}
}

func TestIDCodec(t *testing.T) {
	src := StaticSource(groupItems("A", "B"))

	data, err := IDCodec{}.Encode(src[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"B"}`, string(data))

	got, err := IDCodec{}.Decode(data, src)
	require.NoError(t, err)
	assert.Equal(t, src[1], got)

	missing, err := IDCodec{}.Decode([]byte(`{"id":"Z"}`), src)
	require.NoError(t, err)
	assert.Equal(t, model.DraggableItem{ID: "Z"}, missing)

	_, err = IDCodec{}.Decode([]byte(`{"id":1}`), src)
	assert.True(t, IsMalformedPayload(err))

	_, err = IDCodec{}.Decode([]byte(`{}`), src)
	assert.True(t, IsMalformedPayload(err))
}

func TestCodecByName(t *testing.T) {
	c, err := CodecByName("")
	require.NoError(t, err)
	assert.IsType(t, ItemCodec{}, c)

	c, err = CodecByName(CodecID)
	require.NoError(t, err)
	assert.IsType(t, IDCodec{}, c)

	_, err = CodecByName("protobuf")
	assert.Error(t, err)
}
