package http

import (
	"net/http"
)

type classifyTextRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleClassifyText(w http.ResponseWriter, r *http.Request) {
	var req classifyTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	result, err := s.svc.Assistant.ClassifyText(r.Context(), userID(r), sanitizeInput(req.Text))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(result).Write(w)
}

func (s *Server) handleClassifyVoice(w http.ResponseWriter, r *http.Request) {
	up, err := ParseAudio(w, r)
	if err != nil {
		writeDecodeError(w, r, err)
		return
	}
	result, err := s.svc.Assistant.ClassifyVoice(r.Context(), userID(r), up.Data, up.MimeType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(result).Write(w)
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	up, err := ParseAudio(w, r)
	if err == nil {
		err = CheckRecordingLength(up)
	}
	if err != nil {
		writeDecodeError(w, r, err)
		return
	}
	text, err := s.svc.Assistant.Transcribe(r.Context(), userID(r), up.Data, up.MimeType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(map[string]string{"text": text}).Write(w)
}

type suggestCategoriesRequest struct {
	Description string `json:"description"`
	Locale      string `json:"locale"`
}

func (s *Server) handleSuggestCategories(w http.ResponseWriter, r *http.Request) {
	var req suggestCategoriesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	cats, err := s.svc.Assistant.SuggestCategories(r.Context(), userID(r), sanitizeInput(req.Description), req.Locale)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(map[string]any{"categories": cats}).Write(w)
}
