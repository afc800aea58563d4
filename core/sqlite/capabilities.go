package sqlite

import (
	"context"
	"strconv"
	"strings"

	"github.com/FireDaemon/sqlite-orm/core/errors"
)

// Version is a parsed SQLite library version.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Feature gate thresholds. Each names the first SQLite release that
// shipped the feature.
var (
	versionRenameColumn     = Version{3, 25, 0}
	versionVacuumInto       = Version{3, 27, 0}
	versionGeneratedColumns = Version{3, 31, 0}
	versionDropColumn       = Version{3, 35, 0}
)

// ParseVersion parses a dotted version string as reported by
// sqlite_version(), e.g. "3.42.0". A missing patch component is
// treated as zero.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Version{}, errors.NewParse("version", "", "expected MAJOR.MINOR[.PATCH], got "+strconv.Quote(s))
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, errors.NewParse("version", "", "invalid component "+strconv.Quote(p))
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// String returns the version in MAJOR.MINOR.PATCH form.
func (v Version) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
}

// Compare returns -1, 0, or 1 comparing v against o.
func (v Version) Compare(o Version) int {
	if v.Major != o.Major {
		if v.Major < o.Major {
			return -1
		}
		return 1
	}
	if v.Minor != o.Minor {
		if v.Minor < o.Minor {
			return -1
		}
		return 1
	}
	if v.Patch != o.Patch {
		if v.Patch < o.Patch {
			return -1
		}
		return 1
	}
	return 0
}

// AtLeast reports whether v is the same as or newer than o.
func (v Version) AtLeast(o Version) bool {
	return v.Compare(o) >= 0
}

// QueryVersion asks the connected engine for its library version.
func QueryVersion(ctx context.Context, db Querier) (Version, error) {
	rows, err := db.QueryContext(ctx, "SELECT sqlite_version()")
	if err != nil {
		return Version{}, errors.Wrap(err, "failed to query sqlite_version()")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Version{}, errors.Wrap(err, "failed to read sqlite_version()")
		}
		return Version{}, errors.New("sqlite_version() returned no rows")
	}
	var raw string
	if err := rows.Scan(&raw); err != nil {
		return Version{}, errors.Wrap(err, "failed to scan sqlite_version()")
	}
	if err := rows.Err(); err != nil {
		return Version{}, errors.Wrap(err, "failed to read sqlite_version()")
	}
	return ParseVersion(raw)
}

// Capabilities describes which schema-change features the connected
// SQLite engine supports. Probe it once per connection and reuse it;
// the library version cannot change while the process is running.
type Capabilities struct {
	Version Version
}

// DetectCapabilities probes the engine version and derives its
// capability set.
func DetectCapabilities(ctx context.Context, db Querier) (Capabilities, error) {
	v, err := QueryVersion(ctx, db)
	if err != nil {
		return Capabilities{}, err
	}
	return Capabilities{Version: v}, nil
}

// RenameColumn reports support for ALTER TABLE ... RENAME COLUMN,
// added in SQLite 3.25.0.
func (c Capabilities) RenameColumn() bool {
	return c.Version.AtLeast(versionRenameColumn)
}

// VacuumInto reports support for VACUUM INTO, added in SQLite 3.27.0.
func (c Capabilities) VacuumInto() bool {
	return c.Version.AtLeast(versionVacuumInto)
}

// GeneratedColumns reports support for generated columns, added in
// SQLite 3.31.0.
func (c Capabilities) GeneratedColumns() bool {
	return c.Version.AtLeast(versionGeneratedColumns)
}

// DropColumn reports support for ALTER TABLE ... DROP COLUMN, added
// in SQLite 3.35.0.
func (c Capabilities) DropColumn() bool {
	return c.Version.AtLeast(versionDropColumn)
}
