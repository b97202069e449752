// Package client is a typed Go client for the RadioCalico rating API.
//
// Every endpoint served by internal/server has a matching method. Non-2xx
// responses surface the server's {"error"} message as *APIError; 401 and 403
// responses also match ErrUnauthorized via errors.Is.
package client
