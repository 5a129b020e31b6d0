package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// DatabaseClient handles PostgREST operations.
type DatabaseClient struct {
	client *Client
}

// From starts a query builder for a table.
func (d *DatabaseClient) From(table string) *QueryBuilder {
	return &QueryBuilder{
		client:  d.client,
		table:   table,
		method:  "GET",
		columns: "*",
		filters: make([]string, 0),
		headers: make(map[string]string),
	}
}

// RPC calls a Postgres function with a user token so the function runs under
// the caller's row-level security context.
func (d *DatabaseClient) RPC(ctx context.Context, fn string, params any, accessToken string) ([]byte, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	respBody, statusCode, err := d.client.requestWithToken(ctx, "POST", d.client.restURL+"/rpc/"+fn, body, nil, accessToken)
	if err != nil {
		return nil, err
	}

	if statusCode >= 400 {
		return nil, parseError(respBody, statusCode)
	}

	return respBody, nil
}

// RPCPrivileged calls a Postgres function with the service role key.
func (d *DatabaseClient) RPCPrivileged(ctx context.Context, fn string, params any) ([]byte, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	respBody, statusCode, err := d.client.requestWithServiceKey(ctx, "POST", d.client.restURL+"/rpc/"+fn, body, nil)
	if err != nil {
		return nil, err
	}

	if statusCode >= 400 {
		return nil, parseError(respBody, statusCode)
	}

	return respBody, nil
}

// QueryBuilder builds and executes database queries.
type QueryBuilder struct {
	client      *Client
	table       string
	method      string
	columns     string
	filters     []string
	orders      []string
	limitVal    *int
	body        []byte
	headers     map[string]string
	single      bool
	accessToken string
	serviceRole bool
}

// Select specifies columns to select.
func (q *QueryBuilder) Select(columns string) *QueryBuilder {
	q.method = "GET"
	q.columns = columns
	return q
}

// Insert inserts records.
func (q *QueryBuilder) Insert(data any) *QueryBuilder {
	q.method = "POST"
	body, _ := json.Marshal(data)
	q.body = body
	q.headers["Prefer"] = "return=representation"
	return q
}

// Upsert upserts records on the given conflict target.
func (q *QueryBuilder) Upsert(data any, onConflict string) *QueryBuilder {
	q.method = "POST"
	body, _ := json.Marshal(data)
	q.body = body
	q.headers["Prefer"] = "return=representation,resolution=merge-duplicates"
	if onConflict != "" {
		q.headers["on-conflict"] = onConflict
	}
	return q
}

// Update updates records matching the filters.
func (q *QueryBuilder) Update(data any) *QueryBuilder {
	q.method = "PATCH"
	body, _ := json.Marshal(data)
	q.body = body
	q.headers["Prefer"] = "return=representation"
	return q
}

// Delete deletes records matching the filters.
func (q *QueryBuilder) Delete() *QueryBuilder {
	q.method = "DELETE"
	q.headers["Prefer"] = "return=representation"
	return q
}

// Eq adds an equality filter.
func (q *QueryBuilder) Eq(column string, value any) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s=eq.%v", column, value))
	return q
}

// Neq adds a not-equal filter.
func (q *QueryBuilder) Neq(column string, value any) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s=neq.%v", column, value))
	return q
}

// Is adds an IS filter (null, true, false).
func (q *QueryBuilder) Is(column string, value any) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s=is.%v", column, value))
	return q
}

// Or adds an OR filter group in PostgREST syntax.
func (q *QueryBuilder) Or(filters string) *QueryBuilder {
	q.filters = append(q.filters, "or="+url.QueryEscape("("+filters+")"))
	return q
}

// Filter adds a raw filter.
func (q *QueryBuilder) Filter(column string, op FilterOperator, value any) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s=%s.%v", column, op, value))
	return q
}

// Order adds an order clause.
func (q *QueryBuilder) Order(column string, opts ...OrderDirection) *QueryBuilder {
	dir := OrderAsc
	if len(opts) > 0 {
		dir = opts[0]
	}
	q.orders = append(q.orders, fmt.Sprintf("%s.%s", column, dir))
	return q
}

// Limit sets the maximum number of rows.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limitVal = &n
	return q
}

// Single expects exactly one row; a zero-row result becomes a not-found
// error.
func (q *QueryBuilder) Single() *QueryBuilder {
	q.single = true
	q.headers["Accept"] = "application/vnd.pgrst.object+json"
	return q
}

// WithToken scopes the query to a user's access token (RLS applies).
func (q *QueryBuilder) WithToken(token string) *QueryBuilder {
	q.accessToken = token
	return q
}

// WithServiceRole runs the query with the service role key, bypassing RLS.
// Only background components may use this.
func (q *QueryBuilder) WithServiceRole() *QueryBuilder {
	q.serviceRole = true
	return q
}

// Execute runs the query and returns the raw response body.
func (q *QueryBuilder) Execute(ctx context.Context) ([]byte, error) {
	urlStr := q.buildURL()

	var respBody []byte
	var statusCode int
	var err error

	switch {
	case q.serviceRole:
		respBody, statusCode, err = q.client.requestWithServiceKey(ctx, q.method, urlStr, q.body, q.headers)
	case q.accessToken != "":
		respBody, statusCode, err = q.client.requestWithToken(ctx, q.method, urlStr, q.body, q.headers, q.accessToken)
	default:
		respBody, statusCode, err = q.client.request(ctx, q.method, urlStr, q.body, q.headers)
	}

	if err != nil {
		return nil, err
	}

	if statusCode >= 400 {
		return nil, parseError(respBody, statusCode)
	}

	return respBody, nil
}

// ExecuteInto runs the query and unmarshals the response into dest.
func (q *QueryBuilder) ExecuteInto(ctx context.Context, dest any) error {
	data, err := q.Execute(ctx)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}

// buildURL builds the request URL.
func (q *QueryBuilder) buildURL() string {
	urlStr := q.client.restURL + "/" + url.PathEscape(q.table)

	params := make([]string, 0, len(q.filters)+3)

	if q.method == "GET" && q.columns != "" {
		params = append(params, "select="+url.QueryEscape(q.columns))
	}

	params = append(params, q.filters...)

	if len(q.orders) > 0 {
		params = append(params, "order="+strings.Join(q.orders, ","))
	}

	if q.limitVal != nil {
		params = append(params, fmt.Sprintf("limit=%d", *q.limitVal))
	}

	if len(params) > 0 {
		urlStr += "?" + strings.Join(params, "&")
	}

	return urlStr
}
