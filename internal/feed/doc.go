// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

// Package feed implements the feed ranking and recommendation core: candidate
// retrieval from the Own/Followed/Explore pools, the hand-tuned scoring
// function, lazily rebuilt per-viewer taste profiles, kind interleaving,
// per-author diversity capping, and pagination.
//
// The package is stateless between requests. Every request is an independent
// computation over freshly fetched data; the only write the core performs is
// the wholesale replacement of a viewer's taste profile. All persistence is
// reached through the collaborator interfaces in stores.go, so the core can
// be exercised end to end against the in-memory store.
//
// Note: this package has no dependencies on the api or store packages.
// Integration happens through the interfaces defined here, which keeps the
// ranking logic unit-testable without a running store.
package feed
