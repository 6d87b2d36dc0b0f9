// Package api handles incoming HTTP requests for the resource collections.
// It decodes requests, delegates to the resource service and renders
// JSON:API-shaped responses, mapping service errors to status codes without
// leaking internal details.
package api
