package api

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/tidwall/gjson"

	"github.com/limitedeportes/panel/engine/mutation"
)

// messagePaths are the error body fields that may carry a human readable
// message, in priority order. detail.0.msg covers FastAPI 422 payloads.
var messagePaths = []string{"detail", "detail.0.msg", "mensaje", "message", "error"}

// listPaths are the envelope fields list endpoints may wrap records in.
var listPaths = []string{"data", "items", "results", "usuarios", "sucursales", "registros"}

func serverMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range messagePaths {
		res := gjson.GetBytes(body, path)
		if res.Type == gjson.String && strings.TrimSpace(res.Str) != "" {
			return strings.TrimSpace(res.Str)
		}
	}
	return ""
}

// isJSON reports whether a success body should be decoded. Without a
// Content-Type header the body is sniffed.
func isJSON(header http.Header, body []byte) bool {
	if len(body) == 0 {
		return false
	}
	if ct := header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return false
		}
		return mt == "application/json" || strings.HasSuffix(mt, "+json")
	}
	return mimetype.Detect(body).Is("application/json")
}

// decodeObject returns the JSON object held by body, or an empty object
// when the body is not JSON.
func decodeObject(header http.Header, body []byte) (map[string]any, error) {
	out := map[string]any{}
	if !isJSON(header, body) {
		return out, nil
	}
	if !gjson.ParseBytes(body).IsObject() {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeList returns the records of a list response. A bare array and the
// usual envelopes are accepted; anything else is an empty list.
func decodeList(header http.Header, body []byte) ([]map[string]any, error) {
	if !isJSON(header, body) {
		return []map[string]any{}, nil
	}
	root := gjson.ParseBytes(body)
	raw := ""
	if root.IsArray() {
		raw = root.Raw
	} else {
		for _, path := range listPaths {
			if res := root.Get(path); res.IsArray() {
				raw = res.Raw
				break
			}
		}
	}
	if raw == "" {
		return []map[string]any{}, nil
	}
	var out []map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeOutcome reads the mutation answer. ok defaults to true; an explicit
// false is honored. Both self edit flag spellings are accepted.
func decodeOutcome(header http.Header, body []byte, keyField string) (mutation.Outcome, error) {
	obj, err := decodeObject(header, body)
	if err != nil {
		return mutation.Outcome{}, err
	}
	res := mutation.Outcome{OK: true, Fields: map[string]string{}}
	if ok, present := obj["ok"].(bool); present {
		res.OK = ok
	}
	for _, k := range []string{"mensaje", "message"} {
		if s, _ := obj[k].(string); s != "" {
			res.Message = s
			break
		}
	}
	for _, k := range []string{"editing_self", "editando_propio_usuario"} {
		if b, _ := obj[k].(bool); b {
			res.EditedSelf = true
		}
	}
	for k, v := range obj {
		if s, ok := v.(string); ok {
			res.Fields[k] = s
		}
	}
	res.Key = res.Fields[keyField]
	if res.Key == "" {
		res.Key = res.Fields["key"]
	}
	return res, nil
}
