// Package client contains the building blocks authctl uses to reach the
// auth service.
//
// # Overview
//
// The package provides:
//  1. The Client interface mirroring the /auth routes, and HTTPClient, its
//     JSON-over-HTTP implementation. Requests are traced through an
//     otelhttp transport.
//  2. Bootstrap of the local SQLite session cache (InitDatabase,
//     RunMigrations) with embedded goose migrations.
//
// # Error Handling
//
// Non-2xx replies are returned as *APIError, which unwraps to a sentinel
// matching its class: ErrTokenExpired for an expired access token,
// ErrUnauthorized for other 401/403 replies, ErrNotFound for 404 and
// ErrUnavailable for 5xx. Transport failures also wrap ErrUnavailable.
package client
