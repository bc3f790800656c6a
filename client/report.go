package client

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const MaxReportBytes = 1 << 20

var (
	ErrUnsupportedReport = errors.New("only plain-text reports are supported")
	ErrReportTooLarge    = errors.New("report is larger than 1 MiB")
)

// ReportText checks an uploaded report file and returns its text.
// PDF reports are rejected; they need text extraction first.
func ReportText(filename string, data []byte) (string, error) {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") || bytes.HasPrefix(data, []byte("%PDF-")) {
		return "", ErrUnsupportedReport
	}
	if len(data) > MaxReportBytes {
		return "", ErrReportTooLarge
	}
	if !utf8.Valid(data) {
		return "", ErrUnsupportedReport
	}
	return string(data), nil
}
