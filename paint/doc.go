// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package paint drives a light painting pass: it advances a Painter across
// its image according to a Sweep, and sends each dithered column to a strip.
package paint
