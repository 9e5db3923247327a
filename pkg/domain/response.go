package domain

import "strings"

// ResponseMode is the output format selected by the routing pattern's format token.
type ResponseMode string

const (
	ResponseHTML ResponseMode = "html"
	ResponseJSON ResponseMode = "json"
	ResponseCSV  ResponseMode = "csv"
	ResponseODS  ResponseMode = "ods"
	ResponseXLSX ResponseMode = "xlsx"
	ResponsePDF  ResponseMode = "pdf"
)

// ParseResponseMode maps a format token to a mode. Matching is case-insensitive;
// empty and unknown tokens fall back to HTML.
func ParseResponseMode(token string) ResponseMode {
	switch m := ResponseMode(strings.ToLower(token)); m {
	case ResponseJSON, ResponseCSV, ResponseODS, ResponseXLSX, ResponsePDF:
		return m
	default:
		return ResponseHTML
	}
}

// IsBinary reports whether the mode is served by a binary view (file download).
func (m ResponseMode) IsBinary() bool {
	switch m {
	case ResponseCSV, ResponseODS, ResponseXLSX, ResponsePDF:
		return true
	}
	return false
}
