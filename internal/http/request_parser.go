// This file implements parsing and validation of request bodies and query
// strings.

package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"spendly/internal/core"
)

const (
	maxJSONBody = 1 << 20 // 1 MiB
	// maxAudioBody matches the speech-to-text upload limit.
	maxAudioBody = 25 << 20
	// MaxRecordingSeconds bounds recordings sent for transcription only.
	MaxRecordingSeconds = 30
)

var (
	errMalformedBody = errors.New("malformed request body")
	errBodyTooLarge  = errors.New("request body too large")
)

// decodeJSON reads a single JSON value into dst. Unknown fields are
// rejected so typos in field names surface as 400 instead of silent no-ops.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return errBodyTooLarge
		case errors.Is(err, core.ErrValidation):
			// Field-level validation from custom unmarshalers (dates, amounts).
			return err
		default:
			return fmt.Errorf("%w: %v", errMalformedBody, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errMalformedBody)
	}
	return nil
}

// writeDecodeError distinguishes malformed bodies (400) from invalid
// values (422).
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		ErrorResponse(http.StatusRequestEntityTooLarge, err.Error()).Write(w)
	case errors.Is(err, core.ErrValidation):
		UnprocessableEntityError(err.Error()).Write(w)
	default:
		BadRequestError(err.Error()).Write(w)
	}
}

// ParseExpenseFilter reads category_id, account_id, owner_id, date_from,
// date_to, page and page_size from the query string.
func ParseExpenseFilter(q url.Values) (core.ExpenseFilter, error) {
	var f core.ExpenseFilter
	ref := func(key string) *string {
		if v := sanitizeInput(q.Get(key)); v != "" {
			return &v
		}
		return nil
	}
	f.CategoryID = ref("category_id")
	f.AccountID = ref("account_id")
	f.OwnerID = ref("owner_id")

	for key, dst := range map[string]**core.Date{"date_from": &f.DateFrom, "date_to": &f.DateTo} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			d, err := core.ParseDate(v)
			if err != nil {
				return f, fmt.Errorf("%w: %s", core.ErrInvalidDate, key)
			}
			*dst = &d
		}
	}

	for key, dst := range map[string]*int{"page": &f.Page, "page_size": &f.PageSize} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return f, fmt.Errorf("%w: %s must be a positive integer", core.ErrValidation, key)
			}
			*dst = n
		}
	}
	return f, nil
}

// AudioUpload is a recording received from the client.
type AudioUpload struct {
	Data     []byte
	MimeType string
	// DurationSeconds is reported by the client; 0 when unknown.
	DurationSeconds float64
}

type audioJSON struct {
	Audio           string  `json:"audio"`
	MimeType        string  `json:"mime_type"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// ParseAudio accepts either a multipart upload (file field "audio",
// optional "duration_seconds") or a JSON body with base64 audio.
func ParseAudio(w http.ResponseWriter, r *http.Request) (AudioUpload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		up  AudioUpload
		err error
	)
	if mediaType == "multipart/form-data" {
		up, err = parseMultipartAudio(r)
	} else {
		up, err = parseJSONAudio(r)
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return up, errBodyTooLarge
		}
		return up, err
	}

	if up.DurationSeconds < 0 {
		return up, fmt.Errorf("%w: duration_seconds must not be negative", core.ErrValidation)
	}
	if up.MimeType == "" {
		up.MimeType = "audio/webm"
	}
	return up, nil
}

// CheckRecordingLength rejects uploads whose reported duration exceeds
// MaxRecordingSeconds. Uploads of unknown duration pass.
func CheckRecordingLength(up AudioUpload) error {
	if up.DurationSeconds > MaxRecordingSeconds {
		return fmt.Errorf("%w: recording longer than %d seconds", core.ErrValidation, MaxRecordingSeconds)
	}
	return nil
}

func parseMultipartAudio(r *http.Request) (AudioUpload, error) {
	var up AudioUpload
	if err := r.ParseMultipartForm(maxAudioBody); err != nil {
		return up, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return up, nil
		}
		return up, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	defer file.Close()

	if up.Data, err = io.ReadAll(file); err != nil {
		return up, err
	}
	up.MimeType = header.Header.Get("Content-Type")
	if v := strings.TrimSpace(r.FormValue("duration_seconds")); v != "" {
		if up.DurationSeconds, err = strconv.ParseFloat(v, 64); err != nil {
			return up, fmt.Errorf("%w: duration_seconds must be a number", core.ErrValidation)
		}
	}
	return up, nil
}

func parseJSONAudio(r *http.Request) (AudioUpload, error) {
	var (
		body audioJSON
		up   AudioUpload
	)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return up, err
		}
		return up, fmt.Errorf("%w: %v", errMalformedBody, err)
	}

	// Browsers hand out data URLs; accept them as well as bare base64.
	payload := body.Audio
	if i := strings.Index(payload, ";base64,"); strings.HasPrefix(payload, "data:") && i >= 0 {
		if body.MimeType == "" {
			body.MimeType = strings.TrimPrefix(payload[:i], "data:")
		}
		payload = payload[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return up, fmt.Errorf("%w: audio is not valid base64", errMalformedBody)
	}
	return AudioUpload{Data: data, MimeType: body.MimeType, DurationSeconds: body.DurationSeconds}, nil
}
