package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTripResponse(t *testing.T, r Response) ResponseMessage {
	t.Helper()
	encoded := EncodeResponse(NewResponseMessage(r))
	decoded, err := DecodeResponses(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	return decoded[0]
}

func TestResponseRoundTrip_Empty(t *testing.T) {
	decoded := roundTripResponse(t, &Empty{})
	assert.IsType(t, &Empty{}, decoded.Response)
}

func TestResponseRoundTrip_Error(t *testing.T) {
	decoded := roundTripResponse(t, &ErrorResponse{})
	assert.IsType(t, &ErrorResponse{}, decoded.Response)
}

func TestResponseRoundTrip_Content(t *testing.T) {
	decoded := roundTripResponse(t, &ContentResponse{Offset: 100, Value: "nice content"})
	content := decoded.Response.(*ContentResponse)
	assert.EqualValues(t, 100, content.Offset)
	assert.Equal(t, Content("nice content"), content.Value)
}

func TestResponseRoundTrip_Offset(t *testing.T) {
	decoded := roundTripResponse(t, &OffsetResponse{Offset: 100})
	off := decoded.Response.(*OffsetResponse)
	assert.EqualValues(t, 100, off.Offset)
}

func TestResponseRoundTrip_AskTheController(t *testing.T) {
	decoded := roundTripResponse(t, &AskTheControllerResponse{ControllerAddress: "localhost:8080"})
	ask := decoded.Response.(*AskTheControllerResponse)
	assert.Equal(t, "localhost:8080", ask.ControllerAddress)
}

func TestDecodeResponses_MixedWithoutTerminator(t *testing.T) {
	buf := EncodeResponses([]ResponseMessage{
		NewResponseMessage(&ContentResponse{Offset: 100, Value: "nice content"}),
		NewResponseMessage(&OffsetResponse{Offset: 101}),
		NewResponseMessage(&ContentResponse{Offset: 102, Value: "last content"}),
	})

	decoded, err := DecodeResponses(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 3)

	first := decoded[0].Response.(*ContentResponse)
	assert.EqualValues(t, 100, first.Offset)
	assert.Equal(t, Content("nice content"), first.Value)

	second := decoded[1].Response.(*OffsetResponse)
	assert.EqualValues(t, 101, second.Offset)

	third := decoded[2].Response.(*ContentResponse)
	assert.EqualValues(t, 102, third.Offset)
	assert.Equal(t, Content("last content"), third.Value)
}

func TestDecodeResponses_MultipleContentWithError(t *testing.T) {
	buf := EncodeResponses([]ResponseMessage{
		NewResponseMessage(&ContentResponse{Offset: 100, Value: "nice content"}),
		NewResponseMessage(&ContentResponse{Offset: 101, Value: "other content"}),
		NewResponseMessage(&ErrorResponse{}),
		NewResponseMessage(&ContentResponse{Offset: 102, Value: "last content"}),
	})

	decoded, err := DecodeResponses(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 4)
	assert.IsType(t, &ErrorResponse{}, decoded[2].Response)
}

func TestDecodeResponses_TrailingEmptyIsIncludedAsTerminator(t *testing.T) {
	buf := EncodeResponses([]ResponseMessage{
		NewResponseMessage(&OffsetResponse{Offset: 1}),
		NewResponseMessage(&Empty{}),
	})

	decoded, err := DecodeResponses(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.IsType(t, &OffsetResponse{}, decoded[0].Response)
	assert.IsType(t, &Empty{}, decoded[1].Response)
}

func TestDecodeResponses_EmptyBufferYieldsEmptyList(t *testing.T) {
	decoded, err := DecodeResponses(nil)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}
