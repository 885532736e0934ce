// Package environments exposes the container-use environment operations the
// dashboard offers: listing, log and diff collection, lifecycle actions, and
// streamed activity watching. It shells out through execshell and classifies
// failures for the API boundary.
package environments
