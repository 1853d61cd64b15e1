package jsonstore

import (
	"time"
)

// corruptStampLayout is the yyyyMMddHHmmss stamp in corrupt snapshot names.
const corruptStampLayout = "20060102150405"

// corruptPath names the snapshot of an unparseable data file taken at now,
// e.g. books.json.20260314092653.corrupt.bak. Two snapshots in the same
// second share a name; the later one wins.
func corruptPath(path string, now time.Time) string {
	return path + "." + now.Format(corruptStampLayout) + ".corrupt.bak"
}

// preserveCorrupt writes the exact bytes that failed to parse next to the
// data file. The data file itself is left in place. This is a best-effort
// step: a failed snapshot is reported, never returned.
func preserveCorrupt(policy bestEffort, path string, data []byte, now time.Time) string {
	dst := corruptPath(path, now)
	policy.run(OpCorruptCopy, dst, func() error {
		return writeSynced(dst, data)
	})
	return dst
}
