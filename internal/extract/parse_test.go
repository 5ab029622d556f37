package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReplyFencedPayload(t *testing.T) {
	input := "Sure!\n```json\n{\"commands\":[{\"name\":\"set_title\",\"params\":{\"title\":\"Cells\"}}],\"message\":\"Done\"}\n```"

	reply := ParseReply(input)

	require.True(t, reply.Structured)
	require.Len(t, reply.Commands, 1)
	assert.Equal(t, "set_title", reply.Commands[0].Name)
	assert.Equal(t, "Cells", reply.Commands[0].Params["title"])
	assert.Equal(t, "Done", reply.Message)
}

func TestParseReplyFenceWithoutTag(t *testing.T) {
	input := "```\n{\"commands\":[],\"message\":\"ok\"}\n```"

	reply := ParseReply(input)

	require.True(t, reply.Structured)
	assert.Empty(t, reply.Commands)
	assert.Equal(t, "ok", reply.Message)
}

func TestParseReplyRawPayload(t *testing.T) {
	input := `Here you go: {"reasoning":"adding a heading","commands":[{"name":"add_heading","params":{"content":"Mitosis"}}],"message":"Added."}`

	reply := ParseReply(input)

	require.True(t, reply.Structured)
	assert.Equal(t, "adding a heading", reply.Reasoning)
	require.Len(t, reply.Commands, 1)
	assert.Equal(t, "add_heading", reply.Commands[0].Name)
	assert.Equal(t, "Added.", reply.Message)
}

func TestParseReplyTrailingCommaRepair(t *testing.T) {
	input := `{"commands":[],"message":"ok",}`

	reply := ParseReply(input)

	require.True(t, reply.Structured)
	assert.Empty(t, reply.Commands)
	assert.Equal(t, "ok", reply.Message)
}

func TestParseReplyTrailingCommaInsideArray(t *testing.T) {
	input := `{"commands":[{"name":"set_icon","params":{"icon":"🧬"},},],"message":"set",}`

	reply := ParseReply(input)

	require.True(t, reply.Structured)
	require.Len(t, reply.Commands, 1)
	assert.Equal(t, "set_icon", reply.Commands[0].Name)
}

func TestParseReplyConversationalFallback(t *testing.T) {
	input := "Photosynthesis is how plants convert light into chemical energy."

	reply := ParseReply(input)

	assert.False(t, reply.Structured)
	assert.Empty(t, reply.Commands)
	assert.Equal(t, input, reply.Message)
}

func TestParseReplyUnbalancedFallsBackToText(t *testing.T) {
	// Truncated mid-stream: no balanced object anywhere.
	input := `I'll set that up. {"commands":[{"name":"set_title"`

	reply := ParseReply(input)

	assert.False(t, reply.Structured)
	assert.Equal(t, input, reply.Message)
}

func TestParseReplyCommandsNotAList(t *testing.T) {
	input := `{"commands":"set_title","message":"hm"}`

	reply := ParseReply(input)

	require.True(t, reply.Structured)
	assert.Empty(t, reply.Commands)
	assert.Equal(t, "hm", reply.Message)
}

func TestParseReplyMessageDefaultsToAcknowledgment(t *testing.T) {
	input := `{"commands":[{"name":"set_title","params":{"title":"Cells"}}]}`

	reply := ParseReply(input)

	require.True(t, reply.Structured)
	assert.Equal(t, DefaultAcknowledgment, reply.Message)
}

func TestParseReplyPrefersFencedOverRaw(t *testing.T) {
	// A decoy object in prose before the fence; the fenced payload wins.
	input := "Ignore {\"message\":\"decoy\"} this.\n```json\n{\"commands\":[],\"message\":\"fenced\"}\n```"

	reply := ParseReply(input)

	require.True(t, reply.Structured)
	assert.Equal(t, "fenced", reply.Message)
}

func TestStripTrailingCommasLeavesStringsAlone(t *testing.T) {
	input := `{"text":"a,}","n":[1,2,],}`
	got := stripTrailingCommas(input)
	assert.Equal(t, `{"text":"a,}","n":[1,2]}`, got)
}
