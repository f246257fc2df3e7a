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

package codecmsgs

import "github.com/hyperledger/firefly-common/pkg/i18n"

var ffe = i18n.FFE

//revive:disable
var (
	// Validator (4.A)
	MsgInvalidIdent    = ffe("JAB10001", "Invalid identifier '%s': must match [A-Za-z_][A-Za-z0-9_]*")
	MsgInvalidTypeExpr = ffe("JAB10002", "Invalid type expression '%s'")
	MsgFixedArrayUnsup = ffe("JAB10003", "Fixed-size array syntax is not supported: '%s'")

	// Parser (4.B)
	MsgMalformedABI      = ffe("JAB10010", "Malformed ABI document: %s")
	MsgUnknownABIShape   = ffe("JAB10011", "Could not determine ABI document shape: %s")
	MsgSchemaValidation  = ffe("JAB10012", "ABI document failed schema validation: %s")
	MsgBadRawTypeLiteral = ffe("JAB10013", "Malformed raw(N) literal: '%s'")
	MsgUnsupportedInput  = ffe("JAB10014", "Unsupported ABI input type %T: expected []byte, *abiview.RawABI or *abiview.ABIView")

	// Resolver (4.C)
	MsgUnknownType  = ffe("JAB10020", "Unknown type '%s' - valid names are: %s")
	MsgAliasCycle   = ffe("JAB10021", "Alias cycle detected resolving '%s': %s")
	MsgBadExtension = ffe("JAB10022", "Field '%s' in struct '%s': extension fields ('$') must all trail non-extension fields")
	MsgEmptyVariant = ffe("JAB10023", "Variant '%s' has no members")
	MsgUnknownBase  = ffe("JAB10024", "Struct '%s' has unknown base '%s'")

	// Wire codec (4.D)
	MsgEncodeType        = ffe("JAB10030", "Cannot encode %s value as '%s' at %s")
	MsgEncodeRange       = ffe("JAB10031", "Value %s does not fit in %s at %s")
	MsgEncodeInvalidUTF8 = ffe("JAB10032", "String at %s is not valid UTF-8")
	MsgEncodeAmbiguous   = ffe("JAB10033", "Cannot infer variant alternative for bare scalar at %s: multiple '%s' alternatives in variant '%s'")
	MsgEncodeNoAlt       = ffe("JAB10034", "No alternative of variant '%s' matches value at %s")
	MsgDecodeUnderflow   = ffe("JAB10040", "Unexpected end of buffer at offset %d decoding %s (need %d more byte(s), have %d)")
	MsgDecodeTrailing    = ffe("JAB10041", "%d trailing byte(s) after decoding '%s'")
	MsgDecodeInvalidTag  = ffe("JAB10042", "Invalid variant tag %d for '%s' (%d alternative(s))")
	MsgDecodeBadUTF8     = ffe("JAB10043", "Decoded string at %s is not valid UTF-8")
	MsgDecodeBadBool     = ffe("JAB10044", "Invalid bool byte 0x%02x at offset %d")
	MsgVarintTooLong     = ffe("JAB10045", "Varint at offset %d exceeds maximum of %d bytes")

	// Specializer (4.E)
	MsgUnknownNamedType = ffe("JAB10050", "'%s' is not a named type in this ABI")
	MsgNoPackBuilt      = ffe("JAB10051", "Artifact was built without pack functions (with_pack=false)")
	MsgNoUnpackBuilt    = ffe("JAB10052", "Artifact was built without unpack functions (with_unpack=false)")

	// Artifact cache (4.F)
	MsgCacheReadonly       = ffe("JAB10060", "Cache is read-only: cannot write '%s'")
	MsgCacheMiss           = ffe("JAB10061", "No cached artifact for '%s' and this cache is read-only")
	MsgCacheLockFailed     = ffe("JAB10062", "Failed to acquire %s lock on '%s': %s")
	MsgCacheCorruptParams  = ffe("JAB10063", "Skipping cache entry with malformed params.json at '%s': %s")
	MsgCacheGenFailed      = ffe("JAB10064", "Artifact generation failed for '%s': %s")
	MsgArtifactLoadFailure = ffe("JAB10065", "Failed to load cached artifact at '%s': %s")

	// Context façade (4.G)
	MsgNeedWriteMode = ffe("JAB10070", "Fingerprint miss for '%s' and the context is read-only")
)
