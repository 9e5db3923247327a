package view

import (
	"encoding/json"
	"io"
)

// JSONMime is the content type of JSON responses.
const JSONMime = "application/json"

// FailureJSON is written when the accumulator cannot be encoded.
const FailureJSON = `{"error":"JSON failure."}`

// JSON renders the accumulator as a JSON object.
type JSON struct {
	Indent string
}

// Render implements ports.View. Encoding failures write FailureJSON instead.
func (v JSON) Render(w io.Writer, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	var (
		body []byte
		err  error
	)
	if v.Indent != "" {
		body, err = json.MarshalIndent(data, "", v.Indent)
	} else {
		body, err = json.Marshal(data)
	}
	if err != nil {
		_, werr := io.WriteString(w, FailureJSON)
		return werr
	}
	_, err = w.Write(body)
	return err
}
