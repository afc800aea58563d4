package schema

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// Canonical renders a table's column descriptors in a stable text
// form suitable for fingerprinting. Column order is significant;
// every descriptor field participates.
func Canonical(table string, infos []ColumnInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "table %s\n", table)
	for _, ci := range infos {
		fmt.Fprintf(&b, "%d|%s|%s|%t|%s|%d|%d\n",
			ci.CID, ci.Name, ci.Type, ci.NotNull, ci.DefaultValue, ci.PK, int(ci.Hidden))
	}
	return b.String()
}

// DigestInfos computes the BLAKE3 fingerprint of one table's
// descriptors: a declared mapping and a live table that agree
// structurally produce the same digest.
func DigestInfos(table string, infos []ColumnInfo) string {
	sum := blake3.Sum256([]byte(Canonical(table, infos)))
	return hex.EncodeToString(sum[:])
}

// Digest computes the fingerprint of the declared mapping.
func (t *Table) Digest() string {
	return DigestInfos(t.Name, t.Descriptors())
}

// DigestSet fingerprints a whole schema at once. Tables are combined
// in sorted name order so the digest does not depend on map iteration
// or registration order.
func DigestSet(tables map[string][]ColumnInfo) string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(Canonical(name, tables[name]))
	}
	sum := blake3.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
