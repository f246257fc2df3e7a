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
	"math/big"
)

// fixedIntWidths gives the byte width of every fixed-size integer std
// type. varuint32/varint32 are variable-length and handled separately.
var fixedIntWidths = map[string]int{
	"uint8": 1, "int8": 1,
	"uint16": 2, "int16": 2,
	"uint32": 4, "int32": 4,
	"uint64": 8, "int64": 8,
	"uint128": 16, "int128": 16,
}

func isUnsignedInt(name string) bool {
	return len(name) >= 4 && name[:4] == "uint"
}

// intRange returns the inclusive [min, max] range a fixed-width integer
// type can hold.
func intRange(width int, unsigned bool) (min, max *big.Int) {
	bits := uint(width * 8)
	if unsigned {
		max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))
		return big.NewInt(0), max
	}
	max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits-1), big.NewInt(1))
	min = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), bits-1))
	return min, max
}

// encodeFixedInt renders val as width little-endian bytes, two's
// complement for negative signed values. Caller has already range-checked.
func encodeFixedInt(val *big.Int, width int) []byte {
	u := new(big.Int).Set(val)
	if u.Sign() < 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(width*8))
		u.Add(u, mod)
	}
	be := u.FillBytes(make([]byte, width))
	le := make([]byte, width)
	for i, b := range be {
		le[width-1-i] = b
	}
	return le
}

// decodeFixedInt parses width little-endian bytes into a *big.Int,
// applying sign extension for signed types.
func bigFromUint64(n uint64) *big.Int { return new(big.Int).SetUint64(n) }
func bigFromInt64(n int64) *big.Int   { return big.NewInt(n) }

func decodeFixedInt(buf []byte, width int, unsigned bool) *big.Int {
	be := make([]byte, width)
	for i := 0; i < width; i++ {
		be[i] = buf[width-1-i]
	}
	u := new(big.Int).SetBytes(be)
	if unsigned {
		return u
	}
	bits := uint(width * 8)
	if u.Bit(int(bits-1)) == 1 {
		mod := new(big.Int).Lsh(big.NewInt(1), bits)
		u.Sub(u, mod)
	}
	return u
}
