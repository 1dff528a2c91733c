// Package http provides the HTTP handlers, middleware and router for the
// room booking API.
//
// The router exposes the following endpoints:
//   - POST /auth/login: exchanges {"email","password"} for an access token and
//     a refresh token. POST /auth/refresh-token rotates the refresh token and
//     issues a fresh access token; the presented token is invalidated. POST
//     /auth/logout revokes the refresh token.
//   - GET /users, POST /users, GET/PUT/DELETE /users/{id}: account endpoints
//     exchanging the `userDTO` payload defined in user_handler.go. POST /users
//     without a token self-registers a student account.
//   - GET /rooms, POST /rooms, GET/PUT/DELETE /rooms/{id}: room catalog
//     endpoints. GET /rooms/{id}/devices, GET /rooms/{id}/feedback and
//     GET /rooms/{id}/highlighted-dates expose per-room sub-resources.
//   - GET /bookings, POST /bookings, GET/DELETE /bookings/{id},
//     POST /bookings/{id}/check-in, POST /bookings/{id}/check-out: reservation
//     lifecycle endpoints. Policy violations surface as 409 responses carrying
//     the violation list and any conflicting booking IDs.
//   - POST /devices, PUT/DELETE /devices/{id}: equipment management for
//     administrators and technicians.
//   - POST /feedback: rating submission for checked-out bookings.
//   - GET /config, PUT /config: administrator-editable booking policy values.
//   - GET /ws: WebSocket stream of booking lifecycle events.
//   - GET /healthz and GET /metrics: liveness and Prometheus scrape endpoints.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
