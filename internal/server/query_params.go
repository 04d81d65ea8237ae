package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
)

const dateOnlyLayout = "2006-01-02"

var errInvalidSnowflakeID = errors.New("invalid_snowflake_id")

// flexID accepts snowflake ids written either as JSON strings or numbers.
type flexID snowflake.ID

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
		if len(b) == 0 {
			*f = 0
			return nil
		}
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil || id < 0 {
		return errInvalidSnowflakeID
	}
	*f = flexID(id)
	return nil
}

func (f flexID) ID() snowflake.ID { return snowflake.ID(f) }

func (f *flexID) Ptr() *snowflake.ID {
	if f == nil || *f == 0 {
		return nil
	}
	id := snowflake.ID(*f)
	return &id
}

func parseSnowflakeID(value string) (snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed <= 0 {
		return 0, errInvalidSnowflakeID
	}
	return parsed, nil
}

func parseOptionalSnowflakeID(value string) (*snowflake.ID, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parsed, err := parseSnowflakeID(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// pathID reads the :id path parameter and aborts with 400 when malformed.
func pathID(c *gin.Context) (snowflake.ID, bool) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return 0, false
	}
	return id, true
}

// requiredQueryID reads a mandatory snowflake id from the query string.
func requiredQueryID(c *gin.Context, name string) (snowflake.ID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		AbortWithError(c, newValidationError(name, "required", name+" is required"))
		return 0, false
	}
	id, err := parseSnowflakeID(raw)
	if err != nil {
		AbortWithError(c, newValidationError(name, "invalid_id", "invalid "+name))
		return 0, false
	}
	return id, true
}

func parseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(dateOnlyLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, errors.New("invalid_date")
	}
	return parsed.UTC(), nil
}

func parseOptionalDate(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parsed, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseOptionalStatus(value string) (*invoicedomain.InvoiceStatus, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	status, ok := invoicedomain.ParseInvoiceStatus(value)
	if !ok {
		return nil, invoicedomain.ErrInvalidStatus
	}
	return &status, nil
}

func dateQuery(c *gin.Context, name string) (*time.Time, bool) {
	parsed, err := parseOptionalDate(c.Query(name))
	if err != nil {
		AbortWithError(c, newValidationError(name, "invalid_date", "invalid "+name+", expected YYYY-MM-DD"))
		return nil, false
	}
	return parsed, true
}
