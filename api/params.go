package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/gin-gonic/gin"
)

// UserIDHeader carries the acting user; issuing and checking it is left to the gateway.
const UserIDHeader = "X-User-ID"

// Date accepts either a calendar date or an RFC3339 timestamp in JSON bodies.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := domain.ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// query reads typed query parameters and collects every problem on one ValidationError.
type query struct {
	c  *gin.Context
	ve *domain.ValidationError
}

func newQuery(c *gin.Context) *query {
	return &query{c: c, ve: domain.NewValidationError()}
}

func (q *query) str(name string) string {
	return strings.TrimSpace(q.c.Query(name))
}

func (q *query) date(name string) time.Time {
	raw := q.str(name)
	if raw == "" {
		return time.Time{}
	}
	t, err := domain.ParseDate(raw)
	if err != nil {
		q.ve.Add(name, err.Error())
	}
	return t
}

func (q *query) int(name string, def int) int {
	raw := q.str(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.ve.Add(name, fmt.Sprintf("%q is not a number", raw))
	}
	return n
}

// quantities parses "roomID:qty,roomID:qty".
func (q *query) quantities(name string) map[string]int {
	out := make(map[string]int)
	raw := q.str(name)
	if raw == "" {
		return out
	}
	for _, pair := range strings.Split(raw, ",") {
		id, n, ok := strings.Cut(strings.TrimSpace(pair), ":")
		qty, err := strconv.Atoi(strings.TrimSpace(n))
		if !ok || id == "" || err != nil {
			q.ve.Add(name, fmt.Sprintf("malformed pair %q, expected roomId:quantity", pair))
			continue
		}
		out[strings.TrimSpace(id)] = qty
	}
	return out
}

func (q *query) err() error {
	return q.ve.OrNil()
}

func userID(c *gin.Context) string {
	return c.GetHeader(UserIDHeader)
}
