package pkg

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// ContentType holds the content type header values used by the API handlers.
var ContentType = struct {
	JSON string
	Text string
}{
	JSON: "application/json",
	Text: "text/plain",
}

func WriteResponse(w http.ResponseWriter, contentType, message string, statusCode int) {
	WriteResponseBytes(w, contentType, []byte(message), statusCode)
}

func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode int) {
	if contentType != "" {
		w.Header().Add("Content-Type", contentType)
	}
	w.WriteHeader(statusCode)

	if _, err := w.Write(message); err != nil {
		log.Errorf("failed to write response [%s]: %s", message, err)
	}
}

func WriteJSONResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.JSON, message, http.StatusOK)
}

type successEnvelope struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

type errorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// WriteJSONSuccess wraps data in the standard success envelope.
func WriteJSONSuccess(w http.ResponseWriter, data interface{}, statusCode int) {
	payload, err := json.Marshal(successEnvelope{Status: "success", Data: data})
	if err != nil {
		log.Errorf("marshal response: %s", err)
		WriteJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, payload, statusCode)
}

// WriteJSONError wraps message in the standard error envelope.
func WriteJSONError(w http.ResponseWriter, message string, statusCode int) {
	payload, err := json.Marshal(errorEnvelope{Status: "error", Message: message})
	if err != nil {
		log.Errorf("marshal error response: %s", err)
		http.Error(w, message, statusCode)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, payload, statusCode)
}
