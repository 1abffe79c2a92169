package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestContent_DecodesTextAndPayload(t *testing.T) {
	raw := `[
		{"id":1,"role":"assistant","content":"hello","timestamp":"2026-10-19T08:00:00Z","type":"text"},
		{"id":2,"role":"assistant","content":{"response":"done","api_results":{"valid_pixels":3}},"timestamp":"2026-10-19T08:01:00Z","type":"analysis"}
	]`
	var msgs []Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msgs))
	require.Len(t, msgs, 2)

	require.True(t, msgs[0].IsSeed())
	require.Equal(t, "hello", msgs[0].Content.Text)
	require.False(t, msgs[0].Content.IsStructured())
	require.Equal(t, time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC), msgs[0].Timestamp.UTC())

	require.True(t, msgs[1].Content.IsStructured())
	require.Equal(t, "done", msgs[1].Content.Summary())
	require.True(t, msgs[1].Content.Payload.HasAnalysis())
	require.Equal(t, RenderAnalysis, msgs[1].RenderKind)

	out, err := json.Marshal(msgs[0])
	require.NoError(t, err)
	require.Contains(t, string(out), `"content":"hello"`)
	require.Contains(t, string(out), `"timestamp":"2026-10-19T08:00:00Z"`)
}

func TestContent_SummaryFallsBackToResultsSummary(t *testing.T) {
	c := PayloadContent(ChatResponse{Metadata: &ResponseMetadata{
		ResultsAnalysis: &ResultsAnalysis{ResultsSummary: "forest loss is low"},
	}})
	require.Equal(t, "forest loss is low", c.Summary())
}

func TestDecodeChatResponse(t *testing.T) {
	resp, err := DecodeChatResponse([]byte(` "plain answer" `))
	require.NoError(t, err)
	require.Equal(t, "plain answer", resp.Response)
	require.False(t, resp.HasAnalysis())

	resp, err = DecodeChatResponse([]byte(`{"response":"x","api_results":null,"metadata":{"results_analysis":{"technical_context":{"api_used":"Urban Heat (/satellite/urban_heat)"}}}}`))
	require.NoError(t, err)
	require.True(t, resp.HasAnalysis())
	require.Equal(t, "Urban Heat (/satellite/urban_heat)", resp.APIUsed())

	resp, err = DecodeChatResponse([]byte(`{"response":"x","api_results":null}`))
	require.NoError(t, err)
	require.False(t, resp.HasAnalysis())

	_, err = DecodeChatResponse([]byte(`not-json`))
	require.Error(t, err)
}
