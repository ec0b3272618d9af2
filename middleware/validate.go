package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogpub/utils"
	"github.com/cppla/blogpub/validators"
)

const (
	validatedFieldsKey = "validated_fields"
	validationErrsKey  = "validation_errors"
	maxBodyMemory      = 8 << 20
)

// Source extracts the raw values a schema is checked against.
type Source func(c *gin.Context) (url.Values, error)

var errMalformedBody = errors.New("malformed request body")

// FormSource reads form fields and exposes the stored upload, if any, as
// "image". A client supplied "image" text field is ignored.
func FormSource(c *gin.Context) (url.Values, error) {
	values, err := formValues(c)
	if err != nil {
		return nil, err
	}
	values.Del("image")
	if f, ok := UploadedFileFrom(c); ok {
		values.Set("image", f.Name)
	}
	return values, nil
}

// QuerySource reads the URL query string.
func QuerySource(c *gin.Context) (url.Values, error) {
	return c.Request.URL.Query(), nil
}

// BodySource reads a JSON object body, or form fields for any other content
// type. JSON scalars are converted to their text form and arrays become
// repeated values.
func BodySource(c *gin.Context) (url.Values, error) {
	if c.ContentType() != gin.MIMEJSON {
		return formValues(c)
	}

	var body map[string]any
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return url.Values{}, nil
		}
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	values := url.Values{}
	for key, v := range body {
		switch val := v.(type) {
		case []any:
			for _, item := range val {
				values.Add(key, jsonText(item))
			}
		default:
			values.Add(key, jsonText(val))
		}
	}
	return values, nil
}

// Sanitized wraps source so the named fields are stripped of markup before
// the schema sees them. Rules then check the text that gets stored.
func Sanitized(source Source, fields ...string) Source {
	return func(c *gin.Context) (url.Values, error) {
		values, err := source(c)
		if err != nil {
			return nil, err
		}
		for _, field := range fields {
			for i, v := range values[field] {
				values[field][i] = utils.Sanitize(v)
			}
		}
		return values, nil
	}
}

func jsonText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

func formValues(c *gin.Context) (url.Values, error) {
	if c.Request.PostForm == nil {
		err := c.Request.ParseMultipartForm(maxBodyMemory)
		if err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
		}
	}
	values := url.Values{}
	for k, v := range c.Request.PostForm {
		values[k] = append([]string(nil), v...)
	}
	return values, nil
}

// ValidateFields checks the values taken from source against schema. The
// normalized fields and any failures are stored on the context; HandleErrors
// turns failures into a 400.
func ValidateFields(schema validators.Schema, source Source) gin.HandlerFunc {
	return func(c *gin.Context) {
		values, err := source(c)
		if err != nil {
			RemoveUploadedFile(c)
			utils.Error(c, http.StatusBadRequest, "malformed request body")
			c.Abort()
			return
		}

		fields, errs := schema.Validate(values)
		c.Set(validatedFieldsKey, fields)
		if len(errs) > 0 {
			c.Set(validationErrsKey, errs)
		}
		c.Next()
	}
}

// DeleteFileOnError removes the stored upload when validation failed or when
// the rest of the chain answered with an error.
func DeleteFileOnError() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(ValidationErrors(c)) > 0 {
			RemoveUploadedFile(c)
			c.Next()
			return
		}
		c.Next()
		if c.Writer.Status() >= http.StatusBadRequest {
			RemoveUploadedFile(c)
		}
	}
}

// HandleErrors stops the chain with 400 when validation failed.
func HandleErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		if errs := ValidationErrors(c); len(errs) > 0 {
			utils.ValidationError(c, errs)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ValidatedFields returns the trimmed values checked by ValidateFields.
func ValidatedFields(c *gin.Context) map[string]string {
	if v, ok := c.Get(validatedFieldsKey); ok {
		if fields, ok := v.(map[string]string); ok {
			return fields
		}
	}
	return map[string]string{}
}

// ValidationErrors returns the failures recorded by ValidateFields.
func ValidationErrors(c *gin.Context) []validators.FieldError {
	if v, ok := c.Get(validationErrsKey); ok {
		if errs, ok := v.([]validators.FieldError); ok {
			return errs
		}
	}
	return nil
}

