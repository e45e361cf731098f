package paramstudy

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// hashDelimiter separates name=value tokens in the hashed text.
const hashDelimiter = "\n"

// ComputeHash returns the content identifier of a parameter set: the MD5 hex
// digest of its name=value tokens sorted by name. The result does not depend
// on map iteration order.
func ComputeHash(set ParameterSet) string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString(hashDelimiter)
		}
		writeToken(&b, name, set[name])
	}

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// writeToken writes one name=value token. Names and string values are
// quoted, so neither can contain a raw delimiter or be mistaken for a
// number; numbers and bools are written bare.
func writeToken(b *strings.Builder, name string, v Value) {
	b.WriteString(strconv.Quote(name))
	b.WriteByte('=')
	if v.Kind() == KindString {
		b.WriteString(strconv.Quote(v.Canonical()))
		return
	}
	b.WriteString(v.Canonical())
}
