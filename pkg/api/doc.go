// Package api exposes the platform's HTTP surface behind the security
// pipeline. Every route runs through the pipeline stages; protected
// routes declare their permission, school-scope, and ownership
// requirements to the authorization middleware at registration time.
package api
