package domain

import "net/http"

// ErrorResponse is the uniform error body. Error holds the HTTP status;
// Code names the authorization failure when there is one.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   int    `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

var errorMessages = map[int]string{
	http.StatusBadRequest:          "Bad Request",
	http.StatusNotFound:            "Resource Not Found",
	http.StatusMethodNotAllowed:    "Method Not Allowed",
	http.StatusUnprocessableEntity: "Not Processable",
	http.StatusInternalServerError: "Internal Server Error",
}

// NewErrorResponse returns the error body for status.
func NewErrorResponse(status int) ErrorResponse {
	msg, ok := errorMessages[status]
	if !ok {
		msg = http.StatusText(status)
	}
	return ErrorResponse{Success: false, Error: status, Message: msg}
}

type DrinksResponse struct {
	Success bool `json:"success"`
	Drinks  any  `json:"drinks"`
}

type DeleteResponse struct {
	Success bool  `json:"success"`
	Delete  int64 `json:"delete"`
}

type StatusResponse struct {
	Success bool `json:"success"`
}

// ShortList projects drinks to their public form.
func ShortList(drinks []*Drink) []ShortDrink {
	out := make([]ShortDrink, 0, len(drinks))
	for _, d := range drinks {
		out = append(out, d.Short())
	}
	return out
}

// LongList projects drinks to their detailed form.
func LongList(drinks []*Drink) []LongDrink {
	out := make([]LongDrink, 0, len(drinks))
	for _, d := range drinks {
		out = append(out, d.Long())
	}
	return out
}
