package halfu

import (
	"fmt"
	"io/ioutil"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MediaType is the media type of HAL documents.
const MediaType = "application/hal+json"

// RequestError is returned by ReadRequest when a request can't be read. Status is the HTTP status
// code that should be sent in response.
type RequestError struct {
	Status int

	originalError error
}

func (err *RequestError) Error() string {
	if err.originalError == nil {
		return http.StatusText(err.Status)
	}
	return fmt.Sprintf("%v: %v", http.StatusText(err.Status), err.originalError)
}

func (err *RequestError) Unwrap() error {
	return err.originalError
}

func (err *RequestError) Cause() error {
	return err.originalError
}

func isAcceptableMediaType(mediaType string) bool {
	switch mediaType {
	case MediaType, "application/json", "application/*", "*/*":
		return true
	}
	return false
}

// Acceptable reports whether the request accepts HAL documents. Requests without an Accept header
// accept anything.
func Acceptable(r *http.Request) bool {
	values := r.Header.Values("Accept")
	if len(values) == 0 {
		return true
	}
	for _, accept := range values {
		for _, part := range strings.Split(accept, ",") {
			mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
			if err != nil || !isAcceptableMediaType(mediaType) {
				continue
			}
			if q, ok := params["q"]; ok {
				if n, err := strconv.ParseFloat(q, 64); err == nil && n == 0 {
					continue
				}
			}
			return true
		}
	}
	return false
}

// WriteResponse writes v as a HAL document. If the request doesn't accept HAL documents, a 406
// Not Acceptable response is written instead. If v can't be encoded, a 500 Internal Server Error
// response is written. In either case the error is returned as well.
func (m *Mapper) WriteResponse(w http.ResponseWriter, r *http.Request, status int, v interface{}) error {
	if !Acceptable(r) {
		http.Error(w, http.StatusText(http.StatusNotAcceptable), http.StatusNotAcceptable)
		return &RequestError{
			Status: http.StatusNotAcceptable,
		}
	}

	body, err := m.Marshal(v)
	if err != nil {
		m.logger.Error(errors.Wrap(err, "unable to marshal hal response"))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", MediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

// ReadRequest reads the body of a request into v. Requests must have a HAL or JSON content type,
// or none at all.
func (m *Mapper) ReadRequest(r *http.Request, v interface{}) error {
	if contentType := r.Header.Get("Content-Type"); contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || (mediaType != MediaType && mediaType != "application/json") {
			return &RequestError{
				Status:        http.StatusUnsupportedMediaType,
				originalError: errors.Errorf("unsupported content type %q", contentType),
			}
		}
	}

	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		return &RequestError{
			Status:        http.StatusBadRequest,
			originalError: errors.Wrap(err, "unable to read request body"),
		}
	}

	if err := m.Unmarshal(body, v); err != nil {
		m.logger.WithField("error", err.Error()).Info("malformed hal request received")
		return &RequestError{
			Status:        http.StatusBadRequest,
			originalError: err,
		}
	}
	return nil
}
