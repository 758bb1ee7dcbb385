// Package object stores the binary assets a session accumulates: the QR
// image of its registration link and one signature image per attendee. Two
// backends conform: local filesystem under a static mount, and S3 behind an
// internal streaming proxy. Save operations fail loudly; delete operations
// report success as a bool and never raise, since a failed asset delete must
// not abort the caller's workflow.
package object

import "context"

// Store is the capability set both backends implement. The returned
// reference is backend specific (relative path or object key) and is what
// callers persist on the record and later hand back to the URL and delete
// operations. sessionName must be unique per session (callers pass the
// session's asset folder, topic plus token), otherwise sessions with equal
// topics would overwrite and sweep each other's files.
type Store interface {
	SaveQR(ctx context.Context, png []byte, owner, sessionName string) (string, error)
	SaveSignature(ctx context.Context, image []byte, owner, sessionName, identityNumber string) (string, error)
	QRURL(ref string) string
	SignatureURL(ref string) string
	DeleteQR(ctx context.Context, ref string) bool
	DeleteSignature(ctx context.Context, ref string) bool
	// DeleteSessionAssets removes everything stored for one session in a
	// single sweep. Backends whose layout does not group assets by session
	// report success; their assets are removed through the per-ref deletes.
	DeleteSessionAssets(ctx context.Context, owner, sessionName string) bool
}
