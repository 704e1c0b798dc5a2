package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/rhuss/blueprint/pkg/api"
)

// Body is a prepared request payload.
type Body struct {
	ContentType string
	Reader      io.Reader
}

// formBuilder assembles a multipart form. The first failure is kept and
// reported by body.
type formBuilder struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newForm() *formBuilder {
	f := &formBuilder{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

func (f *formBuilder) field(name, value string) {
	if f.err != nil {
		return
	}
	if err := f.w.WriteField(name, value); err != nil {
		f.err = api.NewServerError(fmt.Sprintf("failed to encode %s: %s", name, err.Error()))
	}
}

// fields appends one form field per value, the way repeated checkboxes are
// submitted.
func (f *formBuilder) fields(name string, values []string) {
	for _, v := range values {
		f.field(name, v)
	}
}

func (f *formBuilder) file(name string, file api.File) {
	if f.err != nil {
		return
	}
	part, err := f.w.CreateFormFile(name, file.Name)
	if err != nil {
		f.err = api.NewServerError(fmt.Sprintf("failed to encode %s: %s", name, err.Error()))
		return
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		f.err = api.NewInvalidRequestError(name, fmt.Sprintf("failed to read %q: %s", file.Name, err.Error()))
	}
}

func (f *formBuilder) body() (Body, error) {
	if f.err != nil {
		return Body{}, f.err
	}
	if err := f.w.Close(); err != nil {
		return Body{}, api.NewServerError(fmt.Sprintf("failed to encode form: %s", err.Error()))
	}
	return Body{ContentType: f.w.FormDataContentType(), Reader: &f.buf}, nil
}

func jsonBody(v any) (Body, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Body{}, api.NewServerError(fmt.Sprintf("failed to encode request: %s", err.Error()))
	}
	return Body{ContentType: "application/json", Reader: bytes.NewReader(data)}, nil
}
