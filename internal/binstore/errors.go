// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package binstore

import (
	"errors"
	"fmt"
)

var (
	// ErrOpen means the file could not be opened or mapped.
	ErrOpen = errors.New("could not open binary store")

	// ErrDecode means the file content is not a valid store.
	ErrDecode = errors.New("could not decode binary store")

	// ErrTruncated means a declared length runs past the end of the file.
	ErrTruncated = fmt.Errorf("%w: truncated file", ErrDecode)

	// ErrSectionTooLarge means a block does not fit its length field.
	ErrSectionTooLarge = errors.New("section exceeds declared length bounds")

	// ErrLayout means the data to write does not match the declared grids.
	ErrLayout = errors.New("data does not match declared layout")
)
