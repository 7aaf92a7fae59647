package chi

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

const contentTypeMsgpack = "application/msgpack"

// isMsgpack reports whether a Content-Type or Accept value names msgpack.
func isMsgpack(value string) bool {
	for part := range strings.SplitSeq(value, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if mt == contentTypeMsgpack || mt == "application/x-msgpack" {
			return true
		}
	}
	return false
}

// decodeBody reads a JSON or msgpack body into v according to Content-Type.
// Both encodings use the json struct tags.
func decodeBody(r *http.Request, v any) error {
	if isMsgpack(r.Header.Get("Content-Type")) {
		dec := msgpack.NewDecoder(r.Body)
		dec.SetCustomStructTag("json")
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("decode msgpack: %w", err)
		}
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// writeBody encodes v as msgpack when the client accepts it, JSON otherwise.
func writeBody(w http.ResponseWriter, r *http.Request, status int, v any) {
	if r != nil && isMsgpack(r.Header.Get("Accept")) {
		w.Header().Set("Content-Type", contentTypeMsgpack)
		w.WriteHeader(status)
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		_ = enc.Encode(v)
		return
	}
	writeJSON(w, status, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
