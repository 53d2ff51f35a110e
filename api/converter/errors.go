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

package converter

import (
	"github.com/yorkie-team/sharenote/pkg/errors"
)

var (
	// ErrStorageCorruption is returned when persisted bytes cannot be
	// decoded or do not match their checksum. It requires operator
	// intervention and only affects the document the bytes belong to.
	ErrStorageCorruption = errors.Internal("storage corruption").WithCode("ErrStorageCorruption")

	// errUnsupportedVersion is returned when the encoding version is unknown.
	errUnsupportedVersion = errors.Internal("unsupported encoding version")
)
