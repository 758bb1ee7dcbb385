package attendance

import "errors"

var (
	// ErrDuplicateRegistration means the identity number already registered
	// against this token.
	ErrDuplicateRegistration = errors.New("identity already registered for this session")

	// ErrInvalidAsset means the submitted signature image could not be
	// decoded or exceeds the size cap.
	ErrInvalidAsset = errors.New("signature image is invalid")
)
