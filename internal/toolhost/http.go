package toolhost

import (
	"encoding/json"
	"net/http"

	"github.com/dataquery/engine/internal/obslog"
)

// Handler returns an http.Handler that accepts a single JSON-RPC 2.0
// request per POST body and writes the matching response, the transport
// spec.md §9 calls non-normative ("transport is external").
func Handler(svc *Service) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, errorResponse(nil, codeInvalidParams, "malformed JSON-RPC request: "+err.Error()))
			return
		}

		resp := svc.Handle(r.Context(), &req)
		if req.ID == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, resp)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		obslog.Errorf("[TOOLHOST] failed to encode response: %v", err)
	}
}
