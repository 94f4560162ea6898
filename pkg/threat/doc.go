// Package threat matches inbound request URLs against known attack
// signatures: path traversal, script-tag injection, javascript:/data: URI
// schemes, eval-style payloads, and SQL union/select shapes.
//
// Matching is ordered and binary: the first signature to match produces a
// suspicious verdict and the pipeline fast-fails the request. Request
// bodies are not inspected; body presence is recorded as audit metadata
// only, which is a deliberate performance trade-off rather than a promise
// of deep inspection.
//
// Signatures can be supplied from a YAML file and hot-reloaded with
// WatchSignatureFile.
package threat
