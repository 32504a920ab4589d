// Package httputil holds the JSON request/response helpers shared by every
// handler, so all endpoints agree on the response envelope and on how
// decode failures turn into 400s.
package httputil
