package http

import (
	"bytes"
	"encoding/base64"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendly/internal/core"
)

func TestParseExpenseFilter(t *testing.T) {
	q := url.Values{
		"category_id": {" cat-1 "},
		"owner_id":    {""},
		"date_from":   {"2024-03-01"},
		"date_to":     {"2024-03-31"},
		"page":        {"2"},
		"page_size":   {"10"},
	}
	f, err := ParseExpenseFilter(q)
	require.NoError(t, err)
	require.NotNil(t, f.CategoryID)
	assert.Equal(t, "cat-1", *f.CategoryID)
	assert.Nil(t, f.AccountID)
	assert.Nil(t, f.OwnerID)
	require.NotNil(t, f.DateFrom)
	assert.Equal(t, "2024-03-01", f.DateFrom.String())
	require.NotNil(t, f.DateTo)
	assert.Equal(t, 2, f.Page)
	assert.Equal(t, 10, f.PageSize)
}

func TestParseExpenseFilterRejectsInvalidValues(t *testing.T) {
	for _, q := range []url.Values{
		{"date_from": {"March"}},
		{"date_to": {"2024-13-01"}},
		{"page": {"-1"}},
		{"page_size": {"ten"}},
	} {
		_, err := ParseExpenseFilter(q)
		assert.ErrorIs(t, err, core.ErrValidation, q.Encode())
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"valid", `{"name":"x"}`, nil},
		{"unknown field", `{"nombre":"x"}`, errMalformedBody},
		{"trailing", `{"name":"x"}{"name":"y"}`, errMalformedBody},
		{"empty", ``, errMalformedBody},
		{"too large", `{"name":"` + strings.Repeat("a", maxJSONBody) + `"}`, errBodyTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst payload
			err := decodeJSON(httptest.NewRecorder(), req, &dst)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, "x", dst.Name)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWriteDecodeError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{errBodyTooLarge, http.StatusRequestEntityTooLarge},
		{core.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{errMalformedBody, http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeDecodeError(rec, httptest.NewRequest(http.MethodPost, "/", nil), tt.err)
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
	}
}

func jsonAudioRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestParseAudioJSON(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("audio-bytes"))

	up, err := ParseAudio(httptest.NewRecorder(), jsonAudioRequest(`{"audio":"`+encoded+`","duration_seconds":12}`))
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), up.Data)
	assert.Equal(t, "audio/webm", up.MimeType, "default mime type")
	assert.InDelta(t, 12, up.DurationSeconds, 0.001)

	up, err = ParseAudio(httptest.NewRecorder(), jsonAudioRequest(`{"audio":"data:audio/mp4;base64,`+encoded+`"}`))
	require.NoError(t, err)
	assert.Equal(t, "audio/mp4", up.MimeType)
	assert.Equal(t, []byte("audio-bytes"), up.Data)

	up, err = ParseAudio(httptest.NewRecorder(), jsonAudioRequest(`{"audio":"`+encoded+`","mime_type":"audio/ogg"}`))
	require.NoError(t, err)
	assert.Equal(t, "audio/ogg", up.MimeType)
}

func TestParseAudioRejects(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("audio-bytes"))

	_, err := ParseAudio(httptest.NewRecorder(), jsonAudioRequest(`{"audio":"%%%"}`))
	assert.ErrorIs(t, err, errMalformedBody)

	_, err = ParseAudio(httptest.NewRecorder(), jsonAudioRequest(`{"audio":"`+encoded+`","duration_seconds":-1}`))
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = ParseAudio(httptest.NewRecorder(), jsonAudioRequest(`{"sound":"x"}`))
	assert.ErrorIs(t, err, errMalformedBody)
}

func multipartAudioRequest(t *testing.T, audio []byte, duration string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if audio != nil {
		fw, err := mw.CreateFormFile("audio", "voice.webm")
		require.NoError(t, err)
		_, err = fw.Write(audio)
		require.NoError(t, err)
	}
	if duration != "" {
		require.NoError(t, mw.WriteField("duration_seconds", duration))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestParseAudioMultipart(t *testing.T) {
	up, err := ParseAudio(httptest.NewRecorder(), multipartAudioRequest(t, []byte("abc"), "5"))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), up.Data)
	assert.InDelta(t, 5, up.DurationSeconds, 0.001)
	assert.NotEmpty(t, up.MimeType)

	up, err = ParseAudio(httptest.NewRecorder(), multipartAudioRequest(t, nil, ""))
	require.NoError(t, err, "a missing file is left for the service to reject")
	assert.Empty(t, up.Data)

	_, err = ParseAudio(httptest.NewRecorder(), multipartAudioRequest(t, []byte("abc"), "long"))
	assert.ErrorIs(t, err, core.ErrValidation)

	up, err = ParseAudio(httptest.NewRecorder(), multipartAudioRequest(t, []byte("abc"), "45"))
	require.NoError(t, err, "length is checked by the transcription handler")
	assert.InDelta(t, 45, up.DurationSeconds, 0.001)
}

func TestCheckRecordingLength(t *testing.T) {
	assert.NoError(t, CheckRecordingLength(AudioUpload{}))
	assert.NoError(t, CheckRecordingLength(AudioUpload{DurationSeconds: MaxRecordingSeconds}))
	assert.ErrorIs(t, CheckRecordingLength(AudioUpload{DurationSeconds: 30.5}), core.ErrValidation)
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hola\tmundo", sanitizeInput("  hola\x00\tmundo\x07 "))
	assert.Nil(t, sanitizePtr(nil))
	assert.Equal(t, "x", *sanitizePtr(ptrTo(" x ")))
}

func ptrTo(s string) *string { return &s }
