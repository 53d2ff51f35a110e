/*
 * Copyright 2020 The Yorkie Authors. All rights reserved.
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
	"fmt"
)

// InitialTicket is the ticket of the head of every line list. No element
// created by an operation compares equal to it.
var InitialTicket = Ticket{}

// Ticket identifies a line element and gives all elements a total order.
// Elements created by the same operation share the lamport and actor and
// differ by delimiter.
type Ticket struct {
	Lamport   int64   `json:"lamport"`
	Delimiter uint32  `json:"delimiter"`
	Actor     ActorID `json:"actor"`
}

// NewTicket creates an instance of Ticket.
func NewTicket(lamport int64, delimiter uint32, actor ActorID) Ticket {
	return Ticket{
		Lamport:   lamport,
		Delimiter: delimiter,
		Actor:     actor,
	}
}

// String returns a short form of the ticket for logs.
func (t Ticket) String() string {
	actor := t.Actor.String()
	return fmt.Sprintf("%d:%s:%d", t.Lamport, actor[len(actor)-2:], t.Delimiter)
}

// After returns whether this ticket is ordered after the given one.
func (t Ticket) After(other Ticket) bool {
	return t.Compare(other) > 0
}

// Compare orders tickets by lamport, then actor, then delimiter.
func (t Ticket) Compare(other Ticket) int {
	if t.Lamport > other.Lamport {
		return 1
	} else if t.Lamport < other.Lamport {
		return -1
	}

	if c := t.Actor.Compare(other.Actor); c != 0 {
		return c
	}

	if t.Delimiter > other.Delimiter {
		return 1
	} else if t.Delimiter < other.Delimiter {
		return -1
	}

	return 0
}
