// Copyright © 2022 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wire

import (
	"context"

	"github.com/hyperledger/firefly-common/pkg/i18n"

	"github.com/openrepublic/jitabi-go/internal/codecmsgs"
)

// maxVarintBytes bounds a LEB128 varint over a 32-bit quantity at 5
// bytes (7 payload bits per byte, ceil(32/7) = 5).
const maxVarintBytes = 5

// putUvarint32 appends the standard unsigned LEB128 encoding of n to buf.
func putUvarint32(buf []byte, n uint32) []byte {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			buf = append(buf, b|0x80)
			continue
		}
		return append(buf, b)
	}
}

// putVarint32 appends the LEB128 encoding of the zig-zag mapping of n
// (spec.md §4.D: `(n<<1) ^ (n>>31)`) to buf.
func putVarint32(buf []byte, n int32) []byte {
	zigzag := (uint32(n) << 1) ^ uint32(n>>31)
	return putUvarint32(buf, zigzag)
}

// takeUvarint32 decodes a standard unsigned LEB128 value from buf starting
// at offset, returning the value, the number of bytes consumed, and any
// decode error (underflow, or more than maxVarintBytes continuation bytes).
func takeUvarint32(ctx context.Context, buf []byte, offset int, breadcrumb string) (uint32, int, error) {
	var result uint32
	for i := 0; i < maxVarintBytes; i++ {
		pos := offset + i
		if pos >= len(buf) {
			return 0, 0, i18n.NewError(ctx, codecmsgs.MsgDecodeUnderflow, offset, breadcrumb, 1, len(buf)-offset)
		}
		b := buf[pos]
		result |= uint32(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
	}
	return 0, 0, i18n.NewError(ctx, codecmsgs.MsgVarintTooLong, offset, maxVarintBytes)
}

// takeVarint32 decodes a zig-zag LEB128 signed value.
func takeVarint32(ctx context.Context, buf []byte, offset int, breadcrumb string) (int32, int, error) {
	zigzag, n, err := takeUvarint32(ctx, buf, offset, breadcrumb)
	if err != nil {
		return 0, 0, err
	}
	return int32(zigzag>>1) ^ -int32(zigzag&1), n, nil
}
