// Package headers decorates responses with security hardening headers
// (CSP, HSTS, frame/XSS/content-type protections) and evaluates CORS
// grants against a static origin allow-list.
//
// Both stages are pure response decoration: a disallowed origin fails open
// to "no CORS grant", never to a blocked request.
package headers
