// Package namespace derives the opaque namespace token that callers
// fold into cache keys for per-user or per-tenant variants. The cache
// engine never interprets the token; this package only produces it,
// from JWT claims or explicit values, and carries it via context.
package namespace
