// Package classifier provides image classifier adapters for the
// classification engine. It supports an HTTP model server and a
// deterministic mock, with response normalization, retry on model load and
// request rate limiting.
package classifier
