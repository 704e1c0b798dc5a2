package mock

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/rhuss/blueprint/pkg/api"
)

// upload is a received file with its content already read.
type upload struct {
	name string
	size int
}

// parseForm parses a multipart or urlencoded body.
func parseForm(r *http.Request, maxMemory int64) error {
	err := r.ParseMultipartForm(maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

// formFile returns the first present file among names. A part submitted
// without a filename is reported with an empty name, which validation
// rejects as "No selected file".
func formFile(r *http.Request, names ...string) (api.File, bool) {
	for _, name := range names {
		f, header, err := r.FormFile(name)
		if err == nil {
			return api.File{Name: header.Filename, Content: f}, true
		}
		if r.MultipartForm != nil {
			if _, ok := r.MultipartForm.Value[name]; ok {
				return api.File{Name: "", Content: strings.NewReader("")}, true
			}
		}
	}
	return api.File{}, false
}

// formValues returns every value of a repeated form field.
func formValues(r *http.Request, name string) []string {
	if r.MultipartForm != nil {
		if v, ok := r.MultipartForm.Value[name]; ok {
			return v
		}
	}
	return r.PostForm[name]
}

// readUpload drains f and reports what was received.
func readUpload(f api.File, limit int64) (upload, error) {
	if c, ok := f.Content.(io.Closer); ok {
		defer c.Close()
	}
	data, err := io.ReadAll(io.LimitReader(f.Content, limit))
	if err != nil {
		return upload{}, fmt.Errorf("reading %q: %w", f.Name, err)
	}
	return upload{name: f.Name, size: len(data)}, nil
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func decodeJSON(r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, limit))
	return dec.Decode(v)
}
