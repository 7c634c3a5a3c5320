package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// requestValidator reports field names by their JSON tags.
func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// decodeJSON reads one JSON value into dst. Unknown fields are ignored;
// trailing data is rejected. The struct is then validated.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return &requestError{msg: "request body is required"}
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return &requestError{msg: "request body is required"}
		case errors.As(err, &maxErr):
			return &requestError{msg: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)}
		default:
			return &requestError{msg: "malformed JSON body", details: err.Error()}
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &requestError{msg: "unexpected data after JSON body"}
	}
	return requestValidator().Struct(dst)
}

// pageFromQuery reads ?page=&limit=. Both absent selects everything.
func pageFromQuery(r *http.Request) (page, limit int, err error) {
	q := r.URL.Query()
	rawPage, rawLimit := q.Get("page"), q.Get("limit")
	if rawPage == "" && rawLimit == "" {
		return 0, 0, nil
	}
	page, limit = 1, defaultPageLimit
	if rawPage != "" {
		if page, err = strconv.Atoi(rawPage); err != nil || page < 1 || page > maxPageNumber {
			return 0, 0, &requestError{msg: fmt.Sprintf("page must be between 1 and %d", maxPageNumber)}
		}
	}
	if rawLimit != "" {
		if limit, err = strconv.Atoi(rawLimit); err != nil || limit < 1 || limit > maxPageLimit {
			return 0, 0, &requestError{msg: fmt.Sprintf("limit must be between 1 and %d", maxPageLimit)}
		}
	}
	return page, limit, nil
}
