// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package feed

import "errors"

// Error taxonomy for the ranking core. Callers classify failures with
// errors.Is; everything else is an internal error.
var (
	// ErrInvalidInput indicates a malformed viewer/item identifier or an
	// out-of-range page/pageSize. Rejected before any retrieval.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a referenced item is missing or soft-deleted
	// when the operation requires it to exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the viewer is blocked by or blocking the
	// item's author. Candidate pools apply this silently as a pre-filter;
	// it only surfaces from single-item operations such as impression
	// recording.
	ErrForbidden = errors.New("forbidden")

	// ErrProfileNotFound is returned by ProfileStore implementations when
	// no taste profile exists for a viewer yet.
	ErrProfileNotFound = errors.New("taste profile not found")
)

func isInvalid(err error) bool   { return errors.Is(err, ErrInvalidInput) }
func isNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
func isForbidden(err error) bool { return errors.Is(err, ErrForbidden) }
