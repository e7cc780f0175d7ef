// Package httputil provides the JSON response envelope shared by every
// API handler: {"success":true, ...} on 200 and {"success":false,"error":...}
// on client and server errors.
package httputil
