// Package upstream talks to the release hosting API (GitHub Releases) and to
// asset download URLs on behalf of the release resolver. It is a leaf: no
// caching and no business rules, only authenticated transport, pagination
// metadata and error classification via ErrUpstreamUnavailable.
package upstream
