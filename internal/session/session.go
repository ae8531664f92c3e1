// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package session tags one volume.Scan invocation with a correlation
// ID, generalizing the teacher's scan.GenSessionID (a timestamp
// string) to a real UUID, already present in the pack's dependency
// surface via google/uuid.
package session

import "github.com/google/uuid"

// ID is a scan correlation ID, logged at the start and end of a scan
// and attached to every log line through logging.WithSession. It is
// not written into a DFXML report.
type ID struct {
	uuid uuid.UUID
}

// New generates a fresh random (v4) session ID.
func New() ID {
	return ID{uuid: uuid.New()}
}

func (id ID) String() string {
	return id.uuid.String()
}
