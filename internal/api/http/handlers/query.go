package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/shop-portal/internal/filter"
	apperrors "github.com/spec-kit/shop-portal/pkg/util/errorutil"
)

// queryReader parses typed query parameters. The first malformed value is
// kept in err and later reads are skipped.
type queryReader struct {
	c   *fiber.Ctx
	err error
}

func newQueryReader(c *fiber.Ctx) *queryReader {
	return &queryReader{c: c}
}

func (r *queryReader) raw(name string) string {
	if r.err != nil {
		return ""
	}
	return strings.TrimSpace(r.c.Query(name))
}

func (r *queryReader) fail(name, reason string) {
	r.err = apperrors.NewInvalidFilter(name, reason)
}

func (r *queryReader) Int(name string) int {
	v := r.raw(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(name, "expected an integer")
		return 0
	}
	return n
}

func (r *queryReader) String(name string) *string {
	v := r.raw(name)
	if v == "" {
		return nil
	}
	return &v
}

func (r *queryReader) Decimal(name string) *decimal.Decimal {
	v := r.raw(name)
	if v == "" {
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		r.fail(name, "expected a decimal number")
		return nil
	}
	return &d
}

// Time accepts RFC 3339 timestamps or plain dates.
func (r *queryReader) Time(name string) *time.Time {
	return r.time(name, false)
}

// TimeUntil reads an inclusive upper bound; a plain date covers the whole day.
func (r *queryReader) TimeUntil(name string) *time.Time {
	return r.time(name, true)
}

func (r *queryReader) time(name string, upper bool) *time.Time {
	v := r.raw(name)
	if v == "" {
		return nil
	}
	t, err := filter.ParseTime(name, v, upper)
	if err != nil {
		r.err = err
		return nil
	}
	return &t
}

func (r *queryReader) Bool(name string) *bool {
	v := r.raw(name)
	if v == "" {
		return nil
	}
	b, err := filter.ParseFlag(name, v)
	if err != nil {
		r.err = err
		return nil
	}
	return &b
}

// Include reports whether name is listed in the comma-separated include
// parameter. Any other listed name is rejected.
func (r *queryReader) Include(name string) bool {
	v := r.raw("include")
	if v == "" {
		return false
	}
	found := false
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
		case name:
			found = true
		default:
			r.fail(part, "unknown include")
			return false
		}
	}
	return found
}

func (r *queryReader) Err() error {
	return r.err
}
