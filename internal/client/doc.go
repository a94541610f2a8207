// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

// Package client implements the interactive client application runtime.
//
// It wires the command prompt, the service layer, and background
// synchronization into a single process lifecycle.
package client
