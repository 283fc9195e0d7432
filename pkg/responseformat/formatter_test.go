package responseformat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type season struct {
	SowingYear int `json:"sowing_year"`
	SowingDay  int `json:"sowing_day"`
}

func TestWriteResponse(t *testing.T) {
	f := NewFormatter()
	want := []season{{SowingYear: 2001, SowingDay: 120}}

	tests := []struct {
		name        string
		target      string
		contentType string
		decode      func(t *testing.T, body []byte) []season
	}{
		{
			name:        "json by default",
			target:      "/runs",
			contentType: ContentTypeJSON,
			decode: func(t *testing.T, body []byte) []season {
				var got []season
				require.NoError(t, json.Unmarshal(body, &got))
				return got
			},
		},
		{
			name:        "unknown format falls back to json",
			target:      "/runs?format=xml",
			contentType: ContentTypeJSON,
			decode: func(t *testing.T, body []byte) []season {
				var got []season
				require.NoError(t, json.Unmarshal(body, &got))
				return got
			},
		},
		{
			name:        "msgpack on request",
			target:      "/runs?format=msgpack",
			contentType: ContentTypeMsgPack,
			decode: func(t *testing.T, body []byte) []season {
				// keys are the json tag names
				var raw []map[string]any
				require.NoError(t, msgpack.Unmarshal(body, &raw))
				require.Contains(t, raw[0], "sowing_year")
				var got []season
				dec := msgpack.NewDecoder(bytes.NewReader(body))
				dec.SetCustomStructTag("json")
				require.NoError(t, dec.Decode(&got))
				return got
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			require.NoError(t, f.WriteResponse(rec, req, want))
			require.Equal(t, http.StatusOK, rec.Code)
			require.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			require.Equal(t, want, tt.decode(t, rec.Body.Bytes()))
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/runs/nope/calendars", nil)
	require.NoError(t, NewFormatter().WriteError(rec, req, http.StatusNotFound, "run not found"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, ErrorBody{Error: "run not found", Status: http.StatusNotFound}, body)
}
