// Package http serves the bookshelf web UI: the shared catalog, book pages,
// per-user reading status, the profile and the readers dashboard.
//
// Every HTML handler follows the same shape. GET requests load records and
// render a page through the Renderer. POST requests bind a form, validate it,
// persist and redirect with a flash message. Invalid submissions re-render the
// page with inline errors and status 200.
package http
