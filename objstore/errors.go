// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"errors"
	"fmt"

	"github.com/antgroup/merge3/internal/cid"
)

// NoSuchObject is returned by Store lookups when a CID is not present.
type NoSuchObject struct {
	ID cid.ID
}

func (e *NoSuchObject) Error() string {
	return fmt.Sprintf("objstore: no such object: %s", e.ID)
}

// IsNoSuchObject reports whether err (or one it wraps) is a NoSuchObject.
func IsNoSuchObject(err error) bool {
	var e *NoSuchObject
	return errors.As(err, &e)
}

// ErrResourceLocked signals that a concurrent writer already holds a
// store's write lock. No store in this package returns it: DiskStore's
// writes wait on its mutex, and none of the stores offers a non-blocking
// write.
var ErrResourceLocked = errors.New("objstore: resource locked")
