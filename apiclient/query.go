package apiclient

import (
	"net/url"
	"strconv"
)

// Query assembles the suffix passed to ListRequests. Empty values are dropped
// and everything is percent-encoded.
type Query struct {
	values url.Values
}

func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

func (q *Query) Set(key, value string) *Query {
	if value != "" {
		q.values.Set(key, value)
	}
	return q
}

func (q *Query) SetInt(key string, value int) *Query {
	if value > 0 {
		q.values.Set(key, strconv.Itoa(value))
	}
	return q
}

func (q *Query) String() string {
	if len(q.values) == 0 {
		return ""
	}
	return "?" + q.values.Encode()
}
