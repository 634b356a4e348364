package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

const maxJSONBody = 1 << 20

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

type cleanRequest struct {
	Operation string `json:"operation" validate:"required,oneof=remove_duplicates fill_missing"`
}

type columnsRequest struct {
	Columns []string `json:"columns" validate:"required,dive,required"`
}

type annotationsRequest struct {
	Goal       string `json:"goal" validate:"max=2000"`
	Reflection string `json:"reflection" validate:"max=5000"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeRequest reads a JSON body into v and validates its struct tags.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := render.DecodeJSON(r.Body, v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", core.ErrInvalidRequest)
		}
		return fmt.Errorf("%w: %w", core.ErrInvalidRequest, err)
	}
	return validateStruct(v)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", core.ErrInvalidRequest, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return fmt.Errorf("%w: %s", core.ErrInvalidRequest, strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", core.ErrInvalidRequest, name)
	}
	return n, nil
}

// readUploads collects the "files" parts of a multipart request. Parts over
// the size limit are passed on without their bytes so the service can reject
// them by size.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]core.UploadedFile, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	if maxSize > 0 {
		bodyLimit := maxSize*int64(max(s.cfg.Upload.MaxFiles, 1)) + multipartMemory
		r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, fmt.Errorf("%w: %w", core.ErrNoFile, err)
		}
		return nil, fmt.Errorf("parse upload: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, core.ErrNoFile
	}

	files := make([]core.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f := core.UploadedFile{Name: fh.Filename, Size: fh.Size}
		if maxSize > 0 && fh.Size > maxSize {
			files = append(files, f)
			continue
		}

		src, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		f.Data, err = io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		files = append(files, f)
	}
	return files, nil
}
