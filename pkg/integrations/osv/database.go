package osv

import (
	"bytes"
	"encoding/json"
	"path"
	"strings"
	"time"

	"github.com/Masterminds/semver"
	"github.com/klauspost/compress/zip"
	packageurl "github.com/package-url/packageurl-go"

	"github.com/matzehuels/depstatus/pkg/deps"
	errs "github.com/matzehuels/depstatus/pkg/errors"
)

// Ecosystem is the OSV ecosystem name of crates.io packages.
const Ecosystem = "crates.io"

// Database is an in-memory index of advisories by package name. It is
// immutable once built and safe for concurrent use.
type Database struct {
	byName map[deps.PackageName][]deps.Advisory
	count  int
}

// NewDatabase indexes advisories by their package.
func NewDatabase(advisories []deps.Advisory) *Database {
	db := &Database{byName: make(map[deps.PackageName][]deps.Advisory)}
	for _, a := range advisories {
		db.byName[a.Package] = append(db.byName[a.Package], a)
		db.count++
	}
	return db
}

// Query returns the advisories affecting version of the named package.
func (db *Database) Query(name deps.PackageName, version *semver.Version) []deps.Advisory {
	var out []deps.Advisory
	for _, a := range db.byName[name] {
		if a.Affects(version) {
			out = append(out, a)
		}
	}
	return out
}

// Len returns the number of indexed advisories.
func (db *Database) Len() int { return db.count }

// Parse reads an OSV export archive: a zip of one JSON record per file.
// Withdrawn records, informational notices and entries for other
// ecosystems are skipped.
func Parse(data []byte, now time.Time) (*Database, error) {
	z, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDecode, err, "advisory archive")
	}

	var advisories []deps.Advisory
	for _, zf := range z.File {
		if zf.FileInfo().IsDir() || path.Ext(zf.Name) != ".json" {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeDecode, err, "advisory archive entry %s", zf.Name)
		}
		var a advisory
		err = json.NewDecoder(rc).Decode(&a)
		rc.Close()
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeDecode, err, "advisory %s", zf.Name)
		}

		if !a.Withdrawn.IsZero() && now.After(a.Withdrawn) {
			continue
		}
		advisories = append(advisories, convert(&a)...)
	}
	return NewDatabase(advisories), nil
}

// convert yields one advisory per affected crates.io package.
func convert(a *advisory) []deps.Advisory {
	var out []deps.Advisory
	for i := range a.Affected {
		af := &a.Affected[i]
		if af.informational() {
			continue
		}
		name, ok := packageName(af.Package)
		if !ok {
			continue
		}
		adv := deps.Advisory{
			ID:       a.ID,
			Package:  name,
			Summary:  a.Summary,
			Aliases:  a.Aliases,
			URL:      advisoryURL(a),
			Versions: af.Versions,
		}
		for _, r := range af.Ranges {
			switch r.Type {
			case "SEMVER", "ECOSYSTEM":
				adv.Ranges = append(adv.Ranges, convertEvents(r.Events)...)
			}
		}
		if len(adv.Ranges) == 0 && len(adv.Versions) == 0 {
			continue
		}
		out = append(out, adv)
	}
	return out
}

// packageName resolves the affected crate, preferring the purl when present.
func packageName(p _package) (deps.PackageName, bool) {
	if p.PURL != "" {
		if purl, err := packageurl.FromString(p.PURL); err == nil {
			if purl.Type != packageurl.TypeCargo {
				return "", false
			}
			name, err := deps.ParsePackageName(purl.Name)
			return name, err == nil
		}
	}
	if p.Ecosystem != Ecosystem {
		return "", false
	}
	name, err := deps.ParsePackageName(p.Name)
	return name, err == nil
}

// convertEvents turns an ordered OSV event list into ranges. An
// "introduced" opens a range; "fixed" or "last_affected" closes it; a range
// left open extends to every later version. A range with an unparseable
// bound is dropped.
func convertEvents(events []rangeEvent) []deps.VersionRange {
	var (
		out  []deps.VersionRange
		cur  *deps.VersionRange
		skip bool
	)
	flush := func() {
		if cur != nil && !skip {
			out = append(out, *cur)
		}
		cur, skip = nil, false
	}
	parse := func(s string) *semver.Version {
		v, err := semver.NewVersion(s)
		if err != nil {
			skip = true
			return nil
		}
		return v
	}

	for _, ev := range events {
		switch {
		case ev.Introduced != "":
			flush()
			cur = &deps.VersionRange{}
			if ev.Introduced != "0" {
				cur.Introduced = parse(ev.Introduced)
			}
		case ev.Fixed != "":
			if cur == nil {
				cur = &deps.VersionRange{}
			}
			cur.Fixed = parse(ev.Fixed)
			flush()
		case ev.LastAffected != "":
			if cur == nil {
				cur = &deps.VersionRange{}
			}
			cur.LastAffected = parse(ev.LastAffected)
			flush()
		}
	}
	flush()
	return out
}

func advisoryURL(a *advisory) string {
	if strings.HasPrefix(a.ID, "RUSTSEC-") {
		return "https://rustsec.org/advisories/" + a.ID + ".html"
	}
	for _, ref := range a.References {
		if ref.Type == "ADVISORY" {
			return ref.URL
		}
	}
	if len(a.References) > 0 {
		return a.References[0].URL
	}
	return ""
}
