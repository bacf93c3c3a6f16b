package dtos

import "time"

type GeneralErrorResponseDto struct {
	Code      int            `json:"code"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Errors    []GeneralError `json:"errors"`
}

type GeneralError struct {
	Message  string `json:"message"`
	Fragment string `json:"fragment,omitempty"`
	Offset   *int   `json:"offset,omitempty"`
}

type ColumnsResponseDto struct {
	Fields  []string `json:"fields"`
	Columns []string `json:"columns"`
}
