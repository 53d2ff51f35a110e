/*
 * Copyright 2024 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package time

import (
	"sort"
	"strconv"
	"strings"
)

// VersionVector is the state vector of a replica. It maps each actor to the
// highest sequence number of that actor's operations applied so far. Since
// operations of an actor are applied contiguously, the value also counts
// them.
type VersionVector map[ActorID]int64

// NewVersionVector creates a new instance of VersionVector.
func NewVersionVector() VersionVector {
	return make(VersionVector)
}

// Get returns the version of the given actor and whether it exists.
func (v VersionVector) Get(id ActorID) (int64, bool) {
	version, ok := v[id]
	return version, ok
}

// VersionOf returns the version of the given actor, zero if absent.
func (v VersionVector) VersionOf(id ActorID) int64 {
	return v[id]
}

// Set sets the given actor's version.
func (v VersionVector) Set(id ActorID, version int64) {
	v[id] = version
}

// DeepCopy creates a deep copy of this VersionVector.
func (v VersionVector) DeepCopy() VersionVector {
	copied := make(VersionVector, len(v))
	for k, val := range v {
		copied[k] = val
	}
	return copied
}

// Covers returns whether every entry of other is less than or equal to the
// corresponding entry of this vector.
func (v VersionVector) Covers(other VersionVector) bool {
	for k, val := range other {
		if v[k] < val {
			return false
		}
	}
	return true
}

// Equal returns whether both vectors hold the same non-zero entries.
func (v VersionVector) Equal(other VersionVector) bool {
	return v.Covers(other) && other.Covers(v)
}

// Max modifies the receiver in place to hold the entry-wise maximum of
// itself and other, and returns it.
func (v VersionVector) Max(other VersionVector) VersionVector {
	for k, val := range other {
		if v[k] < val {
			v[k] = val
		}
	}
	return v
}

// Diff returns the number of operations this vector has that other lacks.
func (v VersionVector) Diff(other VersionVector) int64 {
	var total int64
	for k, val := range v {
		if other[k] < val {
			total += val - other[k]
		}
	}
	return total
}

// Actors returns the actors of this vector in ascending order.
func (v VersionVector) Actors() []ActorID {
	actors := make([]ActorID, 0, len(v))
	for k := range v {
		actors = append(actors, k)
	}
	sort.Slice(actors, func(i, j int) bool {
		return actors[i].Compare(actors[j]) < 0
	})
	return actors
}

// Marshal returns a stable, human readable encoding of this vector.
func (v VersionVector) Marshal() string {
	builder := strings.Builder{}
	builder.WriteRune('{')
	for i, k := range v.Actors() {
		if i > 0 {
			builder.WriteRune(',')
		}
		builder.WriteString(k.String())
		builder.WriteRune(':')
		builder.WriteString(strconv.FormatInt(v[k], 10))
	}
	builder.WriteRune('}')

	return builder.String()
}
